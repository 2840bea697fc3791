// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpubridge"
)

const probeWGSL = `
@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.2, 0.6, 1.0, 1.0);
}
`

var (
	vertexUsage   = gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	defaultFormat = gputypes.TextureFormatBGRA8Unorm
)

// triangle is three float32x2 positions in clip space.
var triangle = packVertices(0, 0.5, -0.5, -0.5, 0.5, -0.5)

func packVertices(v ...float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

func probePipeline(module gpubridge.Handle, format gputypes.TextureFormat) gpubridge.RenderPipelineDescriptor {
	return gpubridge.RenderPipelineDescriptor{
		Label: "gpuprobe",
		Vertex: gpubridge.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: 8,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				},
			}},
		},
		Fragment: &gpubridge.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    []gpubridge.ColorTarget{{Format: format, Blend: gpubridge.BlendPremultiplied}},
		},
	}
}
