package webserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

func newTestServer() *Server {
	return New(Config{
		AppName: "test",
		Version: "0.0.1",
		WebServerModuleConfig: fwconfig.WebServerModuleConfig{
			Host: "127.0.0.1",
			Port: 0,
		},
	}, discardLogger())
}

// TestServerRestartable exercises spec §8's "the web server, started then
// stopped, produces a Halted state from which a subsequent start() serves
// requests again" property at the state level: the router and the modules
// mounted on it stay in place across a stop/start cycle, and a Wait begun
// after the restart tracks the new run.
func TestServerRestartable(t *testing.T) {
	srv := newTestServer()
	hits := 0
	srv.AddRoute(Module{
		Mount: func(r *mux.Router) {
			r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
				hits++
				w.WriteHeader(http.StatusOK)
			}).Methods(http.MethodGet)
		},
	})

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if srv.state != stateRunning {
		t.Fatalf("expected Running after Start, got %v", srv.state)
	}

	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	if srv.state != stateHalted {
		t.Fatalf("expected Halted after Shutdown, got %v", srv.state)
	}

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if srv.state != stateRunning {
		t.Fatalf("expected Running after restart, got %v", srv.state)
	}

	// After the restart, Wait must not immediately report Halted via the
	// stale done channel from the first Shutdown (this is the bug the
	// redesign note guards against: Start must hand out a fresh done channel
	// per run).
	waitDone := make(chan error, 1)
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer waitCancel()
	go func() { waitDone <- srv.Wait(waitCtx) }()

	select {
	case err := <-waitDone:
		t.Fatalf("Wait returned %v while server is still running after restart", err)
	case <-time.After(50 * time.Millisecond):
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}

	select {
	case err := <-waitDone:
		if err != nil {
			t.Fatalf("expected Wait to complete with nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not observe the second Shutdown")
	}
}

func TestServerStartTwiceConflicts(t *testing.T) {
	srv := newTestServer()
	ctx := context.Background()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown(ctx)

	if err := srv.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail while already running")
	}
}

func TestServerShutdownWhenHaltedIsNoop(t *testing.T) {
	srv := newTestServer()
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected no-op Shutdown on a Halted server, got %v", err)
	}
}
