package webctx

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareMissingHeader(t *testing.T) {
	handler := Middleware(Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a context header")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMiddlewareInlineBase64JSON(t *testing.T) {
	payload, _ := json.Marshal(wireContext{Owner: "alice", Roles: []string{"admin"}})
	encoded := base64.StdEncoding.EncodeToString(payload)

	var seen *string
	handler := Middleware(Config{HeaderName: "Tardis-Context"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cc, ok := FromContext(r.Context())
		if !ok {
			t.Fatal("expected caller context in request context")
		}
		if cc.Owner != "alice" {
			t.Errorf("expected owner alice, got %s", cc.Owner)
		}
		if !cc.HasRole("admin") {
			t.Error("expected admin role")
		}
		owner := cc.Owner
		seen = &owner
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Tardis-Context", encoded)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || *seen != "alice" {
		t.Fatal("handler did not observe the decoded context")
	}
}

func TestMiddlewareMalformedBase64(t *testing.T) {
	handler := Middleware(Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Tardis-Context", "not-valid-base64!!")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMiddlewareTokenFormWithoutCacheFails(t *testing.T) {
	handler := Middleware(Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Tardis-Context", "__sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when cache is disabled, got %d", rec.Code)
	}
}
