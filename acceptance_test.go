package usher_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"

	"usher"
)

type BooAction struct{}

func (*BooAction) Foo1() string { return "foo one" }
func (*BooAction) Foo2() string { return "foo two" }

type shopItem struct {
	Category string `path:"category"`
	ID       int    `path:"id"`
}

type ShopAction struct{}

func (*ShopAction) Item(in *shopItem) map[string]any {
	return map[string]any{"category": in.Category, "id": in.ID}
}

type SecretAction struct{}

func (*SecretAction) GetData(ar *usher.ActionRequest) (map[string]any, error) {
	claims, ok := usher.Claims(ar)
	if !ok {
		return nil, usher.Unauthorized("no claims")
	}
	return map[string]any{"sub": claims["sub"]}, nil
}

type markerIc struct {
	hits *[]string
	name string
}

func (m *markerIc) Intercept(ar *usher.ActionRequest, next func() (any, error)) (any, error) {
	*m.hits = append(*m.hits, m.name)
	return next()
}

func getJSON(t *testing.T, client *http.Client, url string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("bad body %q: %v", raw, err)
		}
	}
	return resp.StatusCode, body
}

func TestManualRegistrationScenario(t *testing.T) {
	var hits []string
	boo := &BooAction{}
	echo := &usher.EchoInterceptor{Prefix: "boo"}
	marker := &markerIc{hits: &hits, name: "marker"}

	wa := usher.New(
		usher.WithLogger(zap.NewNop()),
		usher.WithApp(func(app *usher.App) error {
			if err := app.Action().Path("/foo1").Method("GET").MapTo(boo, "Foo1").InterceptBy(echo, marker).Bind(); err != nil {
				return err
			}
			return app.Action().Path("/foo2").Method("GET").MapTo(boo, "Foo2").InterceptBy(echo, marker).Bind()
		}),
	)
	if err := wa.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer wa.Shutdown(context.Background())

	if got := wa.Registry().Count(); got != 2 {
		t.Fatalf("registered actions = %d, want 2", got)
	}

	srv := httptest.NewServer(wa)
	defer srv.Close()

	status, body := getJSON(t, srv.Client(), srv.URL+"/foo1", nil)
	if status != 200 || body["data"] != "foo one" {
		t.Fatalf("GET /foo1 = %d %v", status, body)
	}
	status, body = getJSON(t, srv.Client(), srv.URL+"/foo2", nil)
	if status != 200 || body["data"] != "foo two" {
		t.Fatalf("GET /foo2 = %d %v", status, body)
	}
	if status, _ := getJSON(t, srv.Client(), srv.URL+"/foo3", nil); status != 404 {
		t.Fatalf("GET /foo3 = %d, want 404", status)
	}
	// marker sits behind echo, so its hits prove the whole chain ran.
	if len(hits) != 2 {
		t.Fatalf("interceptor hits = %v, want one per matched request", hits)
	}
}

func TestMacroPathScenario(t *testing.T) {
	wa := usher.New(
		usher.WithLogger(zap.NewNop()),
		usher.WithApp(func(app *usher.App) error {
			return app.Action().Path("/shop/{category}/{id:int}").Method("GET").MapTo(&ShopAction{}, "Item").Bind()
		}),
	)
	if err := wa.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer wa.Shutdown(context.Background())

	srv := httptest.NewServer(wa)
	defer srv.Close()

	status, body := getJSON(t, srv.Client(), srv.URL+"/shop/books/42", nil)
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	data := body["data"].(map[string]any)
	if data["category"] != "books" || data["id"] != float64(42) {
		t.Fatalf("data = %v", data)
	}

	if status, _ := getJSON(t, srv.Client(), srv.URL+"/shop/books/abc", nil); status != 404 {
		t.Fatalf("non-digit id matched: %d", status)
	}
}

func TestAuthScenario(t *testing.T) {
	const secret = "acceptance-secret"
	wa := usher.New(
		usher.WithLogger(zap.NewNop()),
		usher.WithApp(func(app *usher.App) error {
			return app.Action().
				Path("/secret/data").
				Method("GET").
				MapTo(&SecretAction{}, "GetData").
				InterceptBy(&usher.AuthInterceptor{Secret: secret}).
				Bind()
		}),
	)
	if err := wa.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer wa.Shutdown(context.Background())

	srv := httptest.NewServer(wa)
	defer srv.Close()

	status, body := getJSON(t, srv.Client(), srv.URL+"/secret/data", nil)
	if status != 401 {
		t.Fatalf("unauthenticated = %d %v, want 401", status, body)
	}

	token, err := usher.SignToken(secret, jwt.MapClaims{"sub": "u-7"})
	if err != nil {
		t.Fatal(err)
	}
	status, body = getJSON(t, srv.Client(), srv.URL+"/secret/data", map[string]string{
		"Authorization": "Bearer " + token,
	})
	if status != 200 {
		t.Fatalf("authenticated = %d %v", status, body)
	}
	if data := body["data"].(map[string]any); data["sub"] != "u-7" {
		t.Fatalf("claims did not reach the action: %v", body)
	}
}

func TestCORSPreflightScenario(t *testing.T) {
	wa := usher.New(
		usher.WithLogger(zap.NewNop()),
		usher.WithDefaultFilters(&usher.CORSFilter{}),
		usher.WithApp(func(app *usher.App) error {
			return app.Action().Path("/cors").MapTo(&BooAction{}, "Foo1").Bind()
		}),
	)
	if err := wa.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer wa.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	wa.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/cors", nil))
	if rec.Code != 204 {
		t.Fatalf("preflight = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS headers")
	}

	rec = httptest.NewRecorder()
	wa.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cors", nil))
	if rec.Code != 200 {
		t.Fatalf("GET through CORS filter = %d", rec.Code)
	}
}
