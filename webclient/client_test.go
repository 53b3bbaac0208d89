package webclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

type echoBody struct {
	Name string `json:"name"`
}

func newTestClient(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get":
			w.Write([]byte("hello"))
		case "/json":
			json.NewEncoder(w).Encode(echoBody{Name: "world"})
		case "/echo-headers":
			w.Header().Set("X-Echo-Auth", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		case "/post":
			var in echoBody
			json.NewDecoder(r.Body).Decode(&in)
			json.NewEncoder(w).Encode(echoBody{Name: in.Name + "-ack"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	c := New(fwconfig.WebClientModuleConfig{RequestTimeout: 2 * time.Second})
	return c, srv
}

func TestClientGet(t *testing.T) {
	c, srv := newTestClient(t)
	resp, err := c.Get(context.Background(), srv.URL+"/get", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code != http.StatusOK || resp.Body != "hello" {
		t.Errorf("expected 200/hello, got %d/%q", resp.Code, resp.Body)
	}
}

func TestGetToObjDecodesJSON(t *testing.T) {
	c, srv := newTestClient(t)
	resp, err := GetToObj[echoBody](context.Background(), c, srv.URL+"/json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Body.Name != "world" {
		t.Errorf("expected decoded name world, got %q", resp.Body.Name)
	}
}

func TestDefaultHeadersAreSentAndOverridable(t *testing.T) {
	c, srv := newTestClient(t)
	c.SetDefaultHeader("Authorization", "Bearer default")

	resp, err := c.Get(context.Background(), srv.URL+"/echo-headers", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Header.Get("X-Echo-Auth"); got != "Bearer default" {
		t.Errorf("expected default header echoed, got %q", got)
	}

	resp, err = c.Get(context.Background(), srv.URL+"/echo-headers", map[string]string{"Authorization": "Bearer call"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Header.Get("X-Echo-Auth"); got != "Bearer call" {
		t.Errorf("expected per-call header to override default, got %q", got)
	}
}

func TestPostToObjRoundTrips(t *testing.T) {
	c, srv := newTestClient(t)
	resp, err := PostToObj[echoBody, echoBody](context.Background(), c, srv.URL+"/post", echoBody{Name: "req"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Body.Name != "req-ack" {
		t.Errorf("expected server-side transform, got %q", resp.Body.Name)
	}
}

func TestDefaultHeadersReturnsCopy(t *testing.T) {
	c, _ := newTestClient(t)
	c.SetDefaultHeader("X-A", "1")
	headers := c.DefaultHeaders()
	headers["X-A"] = "mutated"

	if got := c.DefaultHeaders()["X-A"]; got != "1" {
		t.Errorf("expected internal header bag unaffected by caller mutation, got %q", got)
	}
}
