package usher

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrNotFoundMatching(t *testing.T) {
	if !errors.Is(NotFound("no such post"), ErrNotFound) {
		t.Fatal("NotFound does not match ErrNotFound")
	}
	wrapped := fmt.Errorf("loading post: %w", NotFound("gone"))
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatal("wrapped 404 does not match ErrNotFound")
	}
	if errors.Is(Forbidden("nope"), ErrNotFound) {
		t.Fatal("403 matched ErrNotFound")
	}
	if errors.Is(errors.New("not found"), ErrNotFound) {
		t.Fatal("plain error matched the sentinel")
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{BadRequest("x"), 400},
		{Unauthorized("x"), 401},
		{Forbidden("x"), 403},
		{NotFound("x"), 404},
		{Internal("x"), 500},
		{fmt.Errorf("ctx: %w", Forbidden("x")), 403},
		{errors.New("anything else"), 500},
	}
	for _, c := range cases {
		if got := statusOf(c.err); got != c.want {
			t.Errorf("statusOf(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestConfigErrorWrapping(t *testing.T) {
	cause := errors.New("yaml broke")
	err := configWrap(cause, "config file %s", "app.yaml")
	if !IsConfigError(err) {
		t.Fatal("wrapped error lost its config nature")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	if err.Error() != "config file app.yaml: yaml broke" {
		t.Fatalf("message = %q", err.Error())
	}
	if IsConfigError(cause) {
		t.Fatal("plain error reported as config error")
	}
}
