package usher

import (
	"fmt"
	"reflect"
	"strings"
)

// AnyMethod registers an action for every HTTP verb.
const AnyMethod = "*"

// ActionDef is the raw descriptor fed to the Registry, produced by the
// manual DSL or by the scanner. The Registry turns it into an
// ActionConfig; the def itself is transient.
type ActionDef struct {
	Path         string
	Method       string
	Target       any
	MethodName   string
	Interceptors []any
	Filters      []any
	Result       string
}

// ActionConfig is one registered action. Built by the Registry at
// registration time and read-only afterwards; request handling never
// mutates it.
type ActionConfig struct {
	Path         string
	Method       string
	Target       any
	TargetType   reflect.Type
	MethodName   string
	Interceptors []Interceptor
	Filters      []Filter
	ResultHint   string
	MacroNames   []string

	compiled    *CompiledPath
	invoke      *invoker
	fingerprint string
}

// Pattern exposes the compiled path, mainly for tests and tooling.
func (c *ActionConfig) Pattern() *CompiledPath { return c.compiled }

func normalizeVerb(m string) string {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" || m == "ANY" || m == AnyMethod {
		return AnyMethod
	}
	return m
}

func verbsIntersect(a, b string) bool {
	return a == AnyMethod || b == AnyMethod || a == b
}

// fingerprintDef identifies a descriptor for idempotence checks.
// Re-registering a descriptor with the same fingerprint is a no-op; a
// different fingerprint under the same route key is a conflict.
func fingerprintDef(path, verb string, targetType reflect.Type, methodName string, ics []Interceptor, fs []Filter, result string) string {
	var sb strings.Builder
	sb.WriteString(path)
	sb.WriteByte('|')
	sb.WriteString(verb)
	sb.WriteByte('|')
	if targetType != nil {
		sb.WriteString(targetType.String())
	}
	sb.WriteByte('|')
	sb.WriteString(methodName)
	sb.WriteByte('|')
	for _, ic := range ics {
		fmt.Fprintf(&sb, "%T,", ic)
	}
	sb.WriteByte('|')
	for _, f := range fs {
		fmt.Fprintf(&sb, "%T,", f)
	}
	sb.WriteByte('|')
	sb.WriteString(result)
	return sb.String()
}
