package webclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newEchoWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msgType, append([]byte("echo:"), data...)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWSClientSendReceiveRoundTrip(t *testing.T) {
	srv := newEchoWSServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	var (
		mu       sync.Mutex
		received []string
		gotOne   = make(chan struct{}, 1)
	)
	handler := func(message string) (string, bool) {
		mu.Lock()
		received = append(received, message)
		mu.Unlock()
		select {
		case gotOne <- struct{}{}:
		default:
		}
		return "", false
	}

	client, err := DialWS(context.Background(), wsURL, handler, nil)
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	defer client.Close()

	if err := client.SendRaw(context.Background(), "ping"); err != nil {
		t.Fatalf("SendRaw: %v", err)
	}

	select {
	case <-gotOne:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed message")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0] != "echo:ping" {
		t.Errorf("expected [echo:ping], got %v", received)
	}
}

func TestWSClientSendObjMarshalsJSON(t *testing.T) {
	srv := newEchoWSServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	gotOne := make(chan string, 1)
	handler := func(message string) (string, bool) {
		gotOne <- message
		return "", false
	}

	client, err := DialWS(context.Background(), wsURL, handler, nil)
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	defer client.Close()

	if err := client.SendObj(context.Background(), map[string]string{"hello": "world"}); err != nil {
		t.Fatalf("SendObj: %v", err)
	}

	select {
	case msg := <-gotOne:
		if !strings.Contains(msg, `"hello":"world"`) {
			t.Errorf("expected marshaled json in echo, got %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed message")
	}
}
