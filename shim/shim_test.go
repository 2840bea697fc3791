package shim

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestScriptDefinesEveryOperation(t *testing.T) {
	src := string(Script)
	for _, name := range []string{
		"isSupported", "requestAdapter", "requestDevice", "getPreferredCanvasFormat",
		"getCanvasContext", "configureCanvasContext", "createBuffer", "writeBuffer",
		"createShaderModule", "createRenderPipeline", "release", "destroyDevice", "connect",
	} {
		if !strings.Contains(src, name+"(") {
			t.Errorf("runtime does not define %s", name)
		}
	}
	for _, cause := range []string{`"DeviceLost"`, `"CompilationError"`} {
		if !strings.Contains(src, cause) {
			t.Errorf("runtime never raises cause %s", cause)
		}
	}
}

func get(t *testing.T, h http.Handler, path string) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	res := rec.Result()
	body, _ := io.ReadAll(res.Body)
	return res, string(body)
}

func TestHandler(t *testing.T) {
	h := Handler(Page{Title: "probe", InteropPath: "/interop"})

	res, body := get(t, h, "/")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d", res.StatusCode)
	}
	for _, want := range []string{"<title>probe</title>", `id="gpubridge"`, `src="webgpu_interop.js"`, `interop"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q:\n%s", want, body)
		}
	}

	res, body = get(t, h, "/"+ScriptName)
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/javascript") {
		t.Errorf("script Content-Type = %q", ct)
	}
	if body != string(Script) {
		t.Error("served script differs from the embedded one")
	}

	if res, _ := get(t, h, "/missing"); res.StatusCode != http.StatusNotFound {
		t.Errorf("GET /missing status = %d, want 404", res.StatusCode)
	}
}

func TestHandlerWithoutInterop(t *testing.T) {
	_, body := get(t, Handler(Page{CanvasID: "main"}), "/")
	if strings.Contains(body, "connect(") {
		t.Error("page connects although no interop path is configured")
	}
	if got := (Page{CanvasID: "main"}).CanvasSelector(); got != "#main" {
		t.Errorf("CanvasSelector() = %q", got)
	}
}
