// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shim embeds the browser half of gpubridge: a small JavaScript
// runtime that installs window.webGpuInterop, keeps every WebGPU object in
// a table and answers invocations either directly (js/wasm builds) or over
// a WebSocket (hosts using wsbridge).
package shim

import (
	_ "embed"
	"html/template"
	"net/http"
	"path"
)

// Script is the webGpuInterop runtime.
//
//go:embed webgpu_interop.js
var Script []byte

// ScriptName is the file name Handler serves Script under.
const ScriptName = "webgpu_interop.js"

// Page configures the bootstrap page served by Handler.
type Page struct {
	// Title is the document title.
	Title string

	// CanvasID is the id of the canvas the page creates. Empty means
	// "gpubridge".
	CanvasID string

	// Width and Height size the canvas in CSS pixels. Zero means 640x480.
	Width, Height int

	// InteropPath is the WebSocket path the page connects back to. Empty
	// means the page only loads the runtime (js/wasm hosts).
	InteropPath string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.Script}}"></script>
</head>
<body>
<canvas id="{{.CanvasID}}" width="{{.Width}}" height="{{.Height}}"></canvas>
{{- if .InteropPath}}
<script>
(function () {
  const scheme = location.protocol === "https:" ? "wss://" : "ws://";
  webGpuInterop.connect(scheme + location.host + {{.InteropPath}});
})();
</script>
{{- end}}
</body>
</html>
`))

func (p Page) withDefaults() Page {
	if p.Title == "" {
		p.Title = "gpubridge"
	}
	if p.CanvasID == "" {
		p.CanvasID = "gpubridge"
	}
	if p.Width == 0 {
		p.Width = 640
	}
	if p.Height == 0 {
		p.Height = 480
	}
	return p
}

// CanvasSelector returns the CSS selector of the page's canvas.
func (p Page) CanvasSelector() string { return "#" + p.withDefaults().CanvasID }

// Handler serves the bootstrap page at "/" and the runtime at
// "/webgpu_interop.js". Mount it under a prefix with http.StripPrefix.
func Handler(p Page) http.Handler {
	p = p.withDefaults()
	mux := http.NewServeMux()
	mux.HandleFunc("/"+ScriptName, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(Script)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := struct {
			Page
			Script string
		}{p, path.Join(".", ScriptName)}
		if err := pageTemplate.Execute(w, data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return mux
}
