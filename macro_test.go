package usher

import "testing"

func TestCompilePathErrors(t *testing.T) {
	bad := []struct {
		name    string
		pattern string
	}{
		{"unclosed brace", "/user/{id"},
		{"stray close", "/user/id}"},
		{"close before open", "/user/}id{"},
		{"empty name", "/user/{}"},
		{"empty name typed", "/user/{:int}"},
		{"duplicate name", "/{id}/x/{id}"},
		{"unknown type", "/user/{id:uuid}"},
		{"two macros one segment", "/user/{a}{b}"},
		{"bad regex", "/user/{id:re:[}"},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := CompilePath(tc.pattern); err == nil {
				t.Fatalf("CompilePath(%q) succeeded, want error", tc.pattern)
			} else if !IsConfigError(err) {
				t.Errorf("CompilePath(%q) error = %v, want ConfigError", tc.pattern, err)
			}
		})
	}
}

func TestCompilePathRoundTrip(t *testing.T) {
	for _, pattern := range []string{
		"/",
		"/user/profile",
		"/shop/{category}/{id:int}",
		"/img-{id}.png",
		"/files/{name:word}/raw",
		"/v1/{hash:re:[0-9a-f]+}",
	} {
		cp, err := CompilePath(pattern)
		if err != nil {
			t.Fatalf("CompilePath(%q): %v", pattern, err)
		}
		if got := cp.String(); got != pattern {
			t.Errorf("String() = %q, want %q", got, pattern)
		}
	}
}

func TestCompiledPathMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		ok      bool
		vars    map[string]string
	}{
		{"/shop/{category}/{id:int}", "/shop/books/42", true,
			map[string]string{"category": "books", "id": "42"}},
		{"/shop/{category}/{id:int}", "/shop/books/abc", false, nil},
		{"/shop/{category}/{id:int}", "/shop/books/-7", true,
			map[string]string{"category": "books", "id": "-7"}},
		{"/shop/{category}/{id:int}", "/shop/books", false, nil},
		{"/shop/{category}/{id:int}", "/shop/books/42/reviews", false, nil},
		{"/user/profile", "/user/profile", true, map[string]string{}},
		{"/user/profile", "/user/profile/x", false, nil},
		{"/img-{id}.png", "/img-77.png", true, map[string]string{"id": "77"}},
		{"/img-{id}.png", "/img-.png", false, nil},
		{"/img-{id}.png", "/img-77.jpg", false, nil},
		{"/files/{name:word}", "/files/a_b9", true, map[string]string{"name": "a_b9"}},
		{"/files/{name:word}", "/files/a.b", false, nil},
		{"/v1/{hash:re:[0-9a-f]+}", "/v1/deadbeef", true, map[string]string{"hash": "deadbeef"}},
		{"/v1/{hash:re:[0-9a-f]+}", "/v1/XYZ", false, nil},
		{"/", "/", true, map[string]string{}},
	}
	for _, tc := range tests {
		t.Run(tc.pattern+" "+tc.path, func(t *testing.T) {
			cp, err := CompilePath(tc.pattern)
			if err != nil {
				t.Fatalf("CompilePath(%q): %v", tc.pattern, err)
			}
			vars, ok := cp.MatchPath(tc.path)
			if ok != tc.ok {
				t.Fatalf("MatchPath(%q) ok = %v, want %v", tc.path, ok, tc.ok)
			}
			if !ok {
				return
			}
			if len(vars) != len(tc.vars) {
				t.Fatalf("vars = %v, want %v", vars, tc.vars)
			}
			for k, want := range tc.vars {
				if vars[k] != want {
					t.Errorf("vars[%q] = %q, want %q", k, vars[k], want)
				}
			}
		})
	}
}

func TestCompiledPathSpecificity(t *testing.T) {
	lit, _ := CompilePath("/user/profile")
	mac, _ := CompilePath("/user/{id}")
	if lit.Literals() != 2 {
		t.Errorf("literal pattern Literals() = %d, want 2", lit.Literals())
	}
	if mac.Literals() != 1 {
		t.Errorf("macro pattern Literals() = %d, want 1", mac.Literals())
	}
	if !lit.IsLiteral() || mac.IsLiteral() {
		t.Error("IsLiteral flags wrong")
	}
}

func TestCompiledPathOverlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"/user/{id}", "/user/{name}", true},
		{"/user/{id}", "/user/profile", true},
		{"/user/{id:int}", "/user/profile", false},
		{"/user/{id}", "/post/{id}", false},
		{"/user/{id}", "/user/{id}/x", false},
		{"/a/{x:int}", "/a/{y:word}", true},
	}
	for _, tc := range tests {
		a, err := CompilePath(tc.a)
		if err != nil {
			t.Fatal(err)
		}
		b, err := CompilePath(tc.b)
		if err != nil {
			t.Fatal(err)
		}
		if got := a.overlaps(b); got != tc.want {
			t.Errorf("overlaps(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
		if got := b.overlaps(a); got != tc.want {
			t.Errorf("overlaps(%q, %q) = %v, want %v", tc.b, tc.a, got, tc.want)
		}
	}
}
