package usher

import (
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type echoInput struct {
	Name  string `query:"name" validate:"required"`
	ID    int    `path:"id"`
	Token string `header:"X-Token"`
	Note  string `json:"note"`
}

type sigAction struct{}

func (*sigAction) Plain()                       {}
func (*sigAction) WithReq(ar *ActionRequest)    {}
func (*sigAction) WithDTO(in *echoInput) string { return in.Name }
func (*sigAction) ErrOnly() error               { return nil }
func (*sigAction) ValErr() (string, error)      { return "v", nil }
func (*sigAction) Both(ar *ActionRequest, in *echoInput) (string, error) {
	return in.Name + "/" + ar.R.Method, nil
}

func (*sigAction) BadOrder(in *echoInput, ar *ActionRequest) {}
func (*sigAction) BadParam(s string)                         {}
func (*sigAction) BadOuts() (error, string)                  { return nil, "" }
func (*sigAction) TooManyIn(a, b, c *echoInput)              {}

func TestNewInvokerShapes(t *testing.T) {
	target := &sigAction{}
	for _, name := range []string{"Plain", "WithReq", "WithDTO", "ErrOnly", "ValErr", "Both"} {
		if _, err := newInvoker(target, name); err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
	}
	for _, name := range []string{"BadOrder", "BadParam", "BadOuts", "TooManyIn", "Missing", ""} {
		if _, err := newInvoker(target, name); !IsConfigError(err) {
			t.Errorf("%s: err = %v, want config error", name, err)
		}
	}
}

func TestInvokerCall(t *testing.T) {
	inv, err := newInvoker(&sigAction{}, "Both")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/shop/42?name=bob", nil)
	ar := newActionRequest(httptest.NewRecorder(), req, zap.NewNop())
	ar.PathVars = map[string]string{"id": "42"}

	args, err := inv.prepare(ar, NewBinder())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	v, err := inv.call(args)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v != "bob/POST" {
		t.Fatalf("value = %v, want bob/POST", v)
	}
}

func TestBinderSources(t *testing.T) {
	req := httptest.NewRequest("POST", "/shop/42?name=bob", strings.NewReader(`{"note":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Token", "tok-1")
	ar := newActionRequest(httptest.NewRecorder(), req, zap.NewNop())
	ar.PathVars = map[string]string{"id": "42"}

	var in echoInput
	if err := NewBinder().Bind(ar, &in); err != nil {
		t.Fatalf("bind: %v", err)
	}
	want := echoInput{Name: "bob", ID: 42, Token: "tok-1", Note: "hi"}
	if in != want {
		t.Fatalf("bound = %+v, want %+v", in, want)
	}
}

func TestBinderFailures(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		ar := newAR("GET", "/shop/1")
		ar.PathVars = map[string]string{"id": "1"}
		var in echoInput
		err := NewBinder().Bind(ar, &in)
		if statusOf(err) != 400 {
			t.Fatalf("err = %v, want bad request", err)
		}
		if !strings.Contains(err.Error(), "Name failed on 'required'") {
			t.Fatalf("message = %q", err.Error())
		}
	})

	t.Run("coercion", func(t *testing.T) {
		ar := newAR("GET", "/shop/zzz?name=bob")
		ar.PathVars = map[string]string{"id": "zzz"}
		var in echoInput
		err := NewBinder().Bind(ar, &in)
		if statusOf(err) != 400 {
			t.Fatalf("err = %v, want bad request", err)
		}
		if !strings.Contains(err.Error(), "ID") {
			t.Fatalf("message = %q", err.Error())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/x?name=bob", strings.NewReader(`{broken`))
		req.Header.Set("Content-Type", "application/json")
		ar := newActionRequest(httptest.NewRecorder(), req, zap.NewNop())
		var in echoInput
		err := NewBinder().Bind(ar, &in)
		if statusOf(err) != 400 {
			t.Fatalf("err = %v, want bad request", err)
		}
	})
}
