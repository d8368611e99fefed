package usher

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

type lifeComp struct {
	name     string
	trace    *[]string
	failInit bool
}

func (c *lifeComp) Init() error {
	*c.trace = append(*c.trace, c.name+":init")
	if c.failInit {
		return errors.New(c.name + " init broke")
	}
	return nil
}

func (c *lifeComp) Start() error {
	*c.trace = append(*c.trace, c.name+":start")
	return nil
}

func (c *lifeComp) Stop() error {
	*c.trace = append(*c.trace, c.name+":stop")
	return nil
}

func TestContainerRegisterAndLookup(t *testing.T) {
	c := NewContainer(zap.NewNop())
	svc := &lifeComp{name: "svc"}
	if err := c.Register("svc", svc); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := c.Register("svc", svc); err != nil {
		t.Fatalf("same value re-registration should be a no-op, got %v", err)
	}
	if err := c.Register("svc", &lifeComp{name: "other"}); !IsConfigError(err) {
		t.Fatalf("err = %v, want config error", err)
	}

	got, ok := c.Lookup("svc")
	if !ok || got != any(svc) {
		t.Fatalf("lookup = %v, %v", got, ok)
	}

	typed, err := ComponentOf[*lifeComp](c, "svc")
	if err != nil || typed != svc {
		t.Fatalf("ComponentOf = %v, %v", typed, err)
	}
	if _, err := ComponentOf[string](c, "svc"); !IsConfigError(err) {
		t.Fatalf("wrong-type err = %v, want config error", err)
	}
	if _, err := ComponentOf[*lifeComp](c, "ghost"); !IsConfigError(err) {
		t.Fatalf("missing err = %v, want config error", err)
	}
}

func TestContainerEachKeepsRegistrationOrder(t *testing.T) {
	c := NewContainer(zap.NewNop())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := c.Register(name, &lifeComp{name: name}); err != nil {
			t.Fatal(err)
		}
	}

	var seen []string
	c.Each(func(name string, component any) {
		if component == nil {
			t.Fatalf("component %q is nil", name)
		}
		seen = append(seen, name)
	})
	want := []string{"zeta", "alpha", "mid"}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("visit order = %v, want %v", seen, want)
	}
}

func TestContainerRejectsNonComparableDuplicate(t *testing.T) {
	c := NewContainer(zap.NewNop())
	if err := c.Register("routes", map[string]string{"a": "b"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Register("routes", map[string]string{"a": "b"}); !IsConfigError(err) {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestContainerLifecycleOrder(t *testing.T) {
	c := NewContainer(zap.NewNop())
	var trace []string
	a := &lifeComp{name: "a", trace: &trace}
	b := &lifeComp{name: "b", trace: &trace}
	if err := c.Register("a", a); err != nil {
		t.Fatal(err)
	}
	if err := c.Register("b", b); err != nil {
		t.Fatal(err)
	}

	for _, p := range []Phase{PhaseInit, PhaseStart, PhaseReady, PhaseStop} {
		if err := c.fire(p); err != nil {
			t.Fatalf("fire %s: %v", p, err)
		}
	}

	want := []string{"a:init", "b:init", "a:start", "b:start", "b:stop", "a:stop"}
	if !reflect.DeepEqual(trace, want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
}

func TestContainerInitAbortsOnError(t *testing.T) {
	c := NewContainer(zap.NewNop())
	var trace []string
	if err := c.Register("bad", &lifeComp{name: "bad", trace: &trace, failInit: true}); err != nil {
		t.Fatal(err)
	}
	if err := c.Register("late", &lifeComp{name: "late", trace: &trace}); err != nil {
		t.Fatal(err)
	}

	err := c.fire(PhaseInit)
	if !IsConfigError(err) {
		t.Fatalf("err = %v, want config error", err)
	}
	want := []string{"bad:init"}
	if !reflect.DeepEqual(trace, want) {
		t.Fatalf("trace = %v, later hooks should not run", trace)
	}
}

func TestContainerLateSubscribeRunsNow(t *testing.T) {
	c := NewContainer(zap.NewNop())
	if err := c.fire(PhaseInit); err != nil {
		t.Fatal(err)
	}

	ran := false
	err := c.Subscribe(PhaseInit, "late", func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("late subscribe: %v", err)
	}
	if !ran {
		t.Fatal("late hook did not run immediately")
	}
}

func TestContainerFireIsIdempotent(t *testing.T) {
	c := NewContainer(zap.NewNop())
	count := 0
	if err := c.Subscribe(PhaseStart, "counter", func() error {
		count++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := c.fire(PhaseStart); err != nil {
		t.Fatal(err)
	}
	if err := c.fire(PhaseStart); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("hook ran %d times, want 1", count)
	}
}
