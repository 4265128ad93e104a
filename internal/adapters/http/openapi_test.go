package httpadapter

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/symptom-triage/internal/config"
)

func TestOpenAPIDocumentIsValid(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background())
	if err != nil {
		t.Fatalf("LoadOpenAPI() error = %v", err)
	}
	if doc.Info.Title == "" {
		t.Fatalf("expected a title")
	}
}

func TestEveryV1RouteIsDocumented(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background())
	if err != nil {
		t.Fatalf("LoadOpenAPI() error = %v", err)
	}
	rt := NewRouter(config.Config{AuthJWTSecret: testSecret}, Services{})

	walk := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		path := "/v1" + strings.TrimSuffix(route, "/")
		item := doc.Paths.Find(path)
		if item == nil {
			t.Errorf("route %s %s is missing from openapi.yaml", method, path)
			return nil
		}
		if item.GetOperation(method) == nil {
			t.Errorf("method %s is not documented for %s", method, path)
		}
		return nil
	}
	if err := chi.Walk(rt.v1Routes(), walk); err != nil {
		t.Fatalf("chi.Walk() error = %v", err)
	}
}

func TestOpenAPIDocumentIsServed(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	res := env.do(t, "", http.MethodGet, "/openapi.yaml", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.HasPrefix(res.Body.String(), "openapi: 3.0.3") {
		t.Fatalf("unexpected document body")
	}
}
