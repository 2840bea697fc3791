package wire

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestTextureFormatNames(t *testing.T) {
	tests := []struct {
		format gputypes.TextureFormat
		name   string
	}{
		{gputypes.TextureFormatBGRA8Unorm, "bgra8unorm"},
		{gputypes.TextureFormatRGBA8Unorm, "rgba8unorm"},
		{gputypes.TextureFormatR8Unorm, "r8unorm"},
		{gputypes.TextureFormatDepth24PlusStencil8, "depth24plus-stencil8"},
	}
	for _, tt := range tests {
		got, err := TextureFormat(tt.format)
		if err != nil || got != tt.name {
			t.Errorf("TextureFormat(%d) = %q, %v; want %q", tt.format, got, err, tt.name)
		}
		back, err := ParseTextureFormat(tt.name)
		if err != nil || back != tt.format {
			t.Errorf("ParseTextureFormat(%q) = %d, %v; want %d", tt.name, back, err, tt.format)
		}
	}
	if _, err := TextureFormat(gputypes.TextureFormatUndefined); err == nil {
		t.Error("TextureFormat(Undefined) should fail")
	}
	if _, err := ParseTextureFormat("rgb10a2unorm"); err == nil {
		t.Error("ParseTextureFormat of an unmapped name should fail")
	}
}

func TestVertexFormatNames(t *testing.T) {
	for _, f := range []gputypes.VertexFormat{
		gputypes.VertexFormatFloat32, gputypes.VertexFormatFloat32x2, gputypes.VertexFormatFloat32x4,
	} {
		name, err := VertexFormat(f)
		if err != nil {
			t.Fatalf("VertexFormat(%d) error = %v", f, err)
		}
		back, err := ParseVertexFormat(name)
		if err != nil || back != f {
			t.Errorf("ParseVertexFormat(%q) = %d, %v; want %d", name, back, err, f)
		}
	}
}

func TestEnumsRejectUnsupported(t *testing.T) {
	if got, err := Topology(gputypes.PrimitiveTopologyTriangleList); err != nil || got != "triangle-list" {
		t.Errorf("Topology(TriangleList) = %q, %v", got, err)
	}
	if got, err := CullMode(gputypes.CullModeNone); err != nil || got != "none" {
		t.Errorf("CullMode(None) = %q, %v", got, err)
	}
	if got, err := StepMode(gputypes.VertexStepModeVertex); err != nil || got != "vertex" {
		t.Errorf("StepMode(Vertex) = %q, %v", got, err)
	}
	if got := PowerPreference(gputypes.PowerPreferenceHighPerformance); got != "high-performance" {
		t.Errorf("PowerPreference(HighPerformance) = %q", got)
	}
}

func TestConvert(t *testing.T) {
	var n uint64
	if err := Convert(float64(42), &n); err != nil || n != 42 {
		t.Errorf("Convert(42.0) = %d, %v", n, err)
	}

	var desc BufferDescriptor
	in := map[string]any{"label": "verts", "size": 64, "usage": 40}
	if err := Convert(in, &desc); err != nil {
		t.Fatalf("Convert(map) error = %v", err)
	}
	if desc.Label != "verts" || desc.Size != 64 || desc.Usage != 40 {
		t.Errorf("Convert(map) = %+v", desc)
	}

	var s string
	if err := Convert(Raw(`"bgra8unorm"`), &s); err != nil || s != "bgra8unorm" {
		t.Errorf("Convert(Raw) = %q, %v", s, err)
	}
}

func TestResponseEncoding(t *testing.T) {
	ref := uint64(7)
	data, err := Marshal(Response{ID: "a", OK: true, Ref: &ref})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"ref":7`) || strings.Contains(string(data), "error") {
		t.Errorf("Marshal(Response) = %s", data)
	}

	var resp Response
	if err := Unmarshal([]byte(`{"id":"b","ok":false,"error":{"message":"lost","cause":"DeviceLost"}}`), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.OK || resp.Error == nil || resp.Error.Cause != "DeviceLost" {
		t.Errorf("Unmarshal(Response) = %+v", resp)
	}
}
