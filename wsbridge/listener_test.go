package wsbridge

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gogpu/gpubridge"
	"github.com/gogpu/gpubridge/shim"
)

func TestListenerAccept(t *testing.T) {
	l := NewListener()
	srv := httptest.NewServer(l)
	t.Cleanup(srv.Close)

	tab := &fakeTab{}
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("tab dial error = %v", err)
	}
	go tab.serve(t, ws)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := l.Accept(ctx)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	format, err := gpubridge.Invoke[string](ctx, c, gpubridge.OpGetPreferredCanvasFormat)
	if err != nil || format != "rgba8unorm" {
		t.Errorf("getPreferredCanvasFormat = %q, %v", format, err)
	}
}

func TestListenerAcceptContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewListener().Accept(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Accept() error = %v, want context.Canceled", err)
	}
}

func TestListenerRejectsCrossOrigin(t *testing.T) {
	srv := httptest.NewServer(NewListener())
	t.Cleanup(srv.Close)

	h := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), h)
	if err == nil {
		t.Fatal("cross-origin handshake accepted")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("handshake response = %v, want 403", resp)
	}
}

func TestServeListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	base := "http://" + ln.Addr().String()

	go func() {
		res, err := http.Get(base + "/")
		if err != nil {
			t.Errorf("GET / error = %v", err)
			return
		}
		_ = res.Body.Close()
		ws, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+InteropPath, nil)
		if err != nil {
			t.Errorf("tab dial error = %v", err)
			return
		}
		(&fakeTab{}).serve(t, ws)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := ServeListener(ctx, ln, shim.Page{Title: "probe"})
	if err != nil {
		t.Fatalf("ServeListener() error = %v", err)
	}
	if ok, err := gpubridge.IsSupported(ctx, c); err != nil || !ok {
		t.Errorf("IsSupported() = %v, %v", ok, err)
	}
	if err := gpubridge.Close(c); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := http.Get(base + "/"); err == nil {
		t.Error("server still answering after Close")
	}
}

func TestServeListenerContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := ServeListener(ctx, ln, shim.Page{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ServeListener() error = %v, want DeadlineExceeded", err)
	}
}

func TestLogRequestsKeepsUpgradeWorking(t *testing.T) {
	l := NewListener()
	mux := http.NewServeMux()
	mux.Handle(InteropPath, l)
	mux.Handle("/", shim.Handler(shim.Page{InteropPath: InteropPath}))
	srv := httptest.NewServer(logRequests(mux))
	t.Cleanup(srv.Close)

	res, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	if !strings.Contains(string(body), shim.ScriptName) {
		t.Errorf("page does not load the runtime:\n%s", body)
	}

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+InteropPath, nil)
	if err != nil {
		t.Fatalf("upgrade through logging wrapper failed: %v", err)
	}
	go (&fakeTab{}).serve(t, ws)

	c, err := l.Accept(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if ok, err := gpubridge.IsSupported(context.Background(), c); err != nil || !ok {
		t.Errorf("IsSupported() = %v, %v", ok, err)
	}
}

func TestTransportsRegistered(t *testing.T) {
	names := gpubridge.Transports()
	for _, want := range []string{"ws", "ws-listen"} {
		found := false
		for _, n := range names {
			found = found || n == want
		}
		if !found {
			t.Errorf("transport %q not registered: %v", want, names)
		}
	}
}
