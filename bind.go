package usher

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ============================================================
// target method invocation and request binding
//
// An action method may take nothing, the *ActionRequest, a pointer
// to a request struct, or both (request first). It may return
// nothing, an error, a result value, or a value and an error. The
// shape is checked once at registration; requests never hit an
// unsupported signature.
// ============================================================

var (
	reqType = reflect.TypeOf((*ActionRequest)(nil))
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

type invoker struct {
	fn       reflect.Value
	wantsReq bool
	dtoType  reflect.Type
	outVal   int
	outErr   int
}

func newInvoker(target any, methodName string) (*invoker, error) {
	if methodName == "" {
		return nil, configErr("method name is empty")
	}
	fn := reflect.ValueOf(target).MethodByName(methodName)
	if !fn.IsValid() {
		return nil, configErr("%T has no method %s", target, methodName)
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return nil, configErr("%T.%s: variadic methods are not supported", target, methodName)
	}

	inv := &invoker{fn: fn, outVal: -1, outErr: -1}

	switch ft.NumIn() {
	case 0:
	case 1:
		in := ft.In(0)
		if in == reqType {
			inv.wantsReq = true
		} else if dto, ok := dtoElem(in); ok {
			inv.dtoType = dto
		} else {
			return nil, configErr("%T.%s: parameter must be *ActionRequest or a struct pointer, got %s", target, methodName, in)
		}
	case 2:
		if ft.In(0) != reqType {
			return nil, configErr("%T.%s: first of two parameters must be *ActionRequest, got %s", target, methodName, ft.In(0))
		}
		dto, ok := dtoElem(ft.In(1))
		if !ok {
			return nil, configErr("%T.%s: second parameter must be a struct pointer, got %s", target, methodName, ft.In(1))
		}
		inv.wantsReq = true
		inv.dtoType = dto
	default:
		return nil, configErr("%T.%s: too many parameters", target, methodName)
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errType {
			inv.outErr = 0
		} else {
			inv.outVal = 0
		}
	case 2:
		if ft.Out(0) == errType || ft.Out(1) != errType {
			return nil, configErr("%T.%s: two results must be (value, error)", target, methodName)
		}
		inv.outVal = 0
		inv.outErr = 1
	default:
		return nil, configErr("%T.%s: too many results", target, methodName)
	}
	return inv, nil
}

func dtoElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Ptr || t == reqType || t.Elem().Kind() != reflect.Struct {
		return nil, false
	}
	return t.Elem(), true
}

// prepare builds the call arguments, binding the request struct when
// the method declares one. A bind failure surfaces here so the
// dispatcher can route it through the action chain.
func (v *invoker) prepare(ar *ActionRequest, b *Binder) ([]reflect.Value, error) {
	args := make([]reflect.Value, 0, 2)
	if v.wantsReq {
		args = append(args, reflect.ValueOf(ar))
	}
	if v.dtoType != nil {
		dto := reflect.New(v.dtoType)
		if err := b.Bind(ar, dto.Interface()); err != nil {
			return nil, err
		}
		args = append(args, dto)
	}
	return args, nil
}

func (v *invoker) call(args []reflect.Value) (any, error) {
	outs := v.fn.Call(args)
	var val any
	var err error
	if v.outVal >= 0 {
		val = outs[v.outVal].Interface()
	}
	if v.outErr >= 0 && !outs[v.outErr].IsNil() {
		err = outs[v.outErr].Interface().(error)
	}
	return val, err
}

// Binder fills request structs from the HTTP request and validates
// them. Field sources are declared with `path`, `query`, `header` and
// `form` tags; a JSON body is decoded first when one is present.
type Binder struct {
	validate *validator.Validate
}

func NewBinder() *Binder {
	return &Binder{validate: validator.New()}
}

func (b *Binder) Bind(ar *ActionRequest, dst any) error {
	if hasJSONBody(ar) {
		if err := json.NewDecoder(ar.R.Body).Decode(dst); err != nil {
			return BadRequest("malformed request body")
		}
	}
	rv := reflect.ValueOf(dst).Elem()
	if err := b.bindFields(ar, rv); err != nil {
		return err
	}
	if err := b.validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
			return BadRequest(strings.Join(msgs, "; "))
		}
		return BadRequest(err.Error())
	}
	return nil
}

func hasJSONBody(ar *ActionRequest) bool {
	if ar.R.Body == nil || ar.R.ContentLength == 0 {
		return false
	}
	return strings.Contains(ar.R.Header.Get("Content-Type"), "application/json")
}

func (b *Binder) bindFields(ar *ActionRequest, rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := rv.Field(i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			if err := b.bindFields(ar, fv); err != nil {
				return err
			}
			continue
		}
		if !fv.CanSet() {
			continue
		}
		raw, ok := fieldSource(ar, sf)
		if !ok || raw == "" {
			continue
		}
		if err := setField(fv, raw); err != nil {
			return BadRequest(fmt.Sprintf("invalid value for %s", sf.Name))
		}
	}
	return nil
}

func fieldSource(ar *ActionRequest, sf reflect.StructField) (string, bool) {
	if name, ok := sf.Tag.Lookup("path"); ok {
		return ar.PathVar(name), true
	}
	if name, ok := sf.Tag.Lookup("query"); ok {
		return ar.R.URL.Query().Get(name), true
	}
	if name, ok := sf.Tag.Lookup("header"); ok {
		return ar.R.Header.Get(name), true
	}
	if name, ok := sf.Tag.Lookup("form"); ok {
		return ar.R.PostFormValue(name), true
	}
	return "", false
}

func setField(fv reflect.Value, raw string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		fv.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(v)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}
