package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBasicRouter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("Method Filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle("/only-post", ok, "post")

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/only-post", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/only-post", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
		if rec.Header().Get("Allow") != "POST" {
			t.Errorf("expected normalized Allow header, got %q", rec.Header().Get("Allow"))
		}
		if !strings.Contains(rec.Body.String(), "Method not allowed") {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
	})

	t.Run("No Methods Accepts Any", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle("/any", ok)

		for _, m := range []string{http.MethodGet, http.MethodDelete, http.MethodPatch} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(m, "/any", nil))
			if rec.Code != http.StatusNoContent {
				t.Errorf("%s: expected 204, got %d", m, rec.Code)
			}
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle("/", ok)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second got %v", order)
		}
	})

	t.Run("Custom Handler Routes", func(t *testing.T) {
		r := NewBasicRouter()
		h := NewCallbackHandler("/landing", "")
		r.Handler(h)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/landing", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}
