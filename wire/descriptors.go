// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wire

// Descriptors mirror the JavaScript dictionaries of the WebGPU API. Object
// references are remote tokens; enums are the browser's string names.

// AdapterOptions mirrors GPURequestAdapterOptions.
type AdapterOptions struct {
	PowerPreference string `json:"powerPreference,omitempty"`
}

// BufferDescriptor mirrors GPUBufferDescriptor.
type BufferDescriptor struct {
	Label            string `json:"label,omitempty"`
	Size             uint64 `json:"size"`
	Usage            uint32 `json:"usage"`
	MappedAtCreation bool   `json:"mappedAtCreation,omitempty"`
}

// ShaderModuleDescriptor mirrors GPUShaderModuleDescriptor.
type ShaderModuleDescriptor struct {
	Label string `json:"label,omitempty"`
	Code  string `json:"code"`
}

// VertexAttribute mirrors GPUVertexAttribute.
type VertexAttribute struct {
	Format         string `json:"format"`
	Offset         uint64 `json:"offset"`
	ShaderLocation uint32 `json:"shaderLocation"`
}

// VertexBufferLayout mirrors GPUVertexBufferLayout.
type VertexBufferLayout struct {
	ArrayStride uint64            `json:"arrayStride"`
	StepMode    string            `json:"stepMode,omitempty"`
	Attributes  []VertexAttribute `json:"attributes"`
}

// VertexState mirrors GPUVertexState.
type VertexState struct {
	Module     uint64               `json:"module"`
	EntryPoint string               `json:"entryPoint,omitempty"`
	Buffers    []VertexBufferLayout `json:"buffers,omitempty"`
}

// ColorTargetState mirrors GPUColorTargetState. Blend names a preset the
// remote runtime expands ("premultiplied", "alpha"); empty means replace.
type ColorTargetState struct {
	Format string `json:"format"`
	Blend  string `json:"blend,omitempty"`
}

// FragmentState mirrors GPUFragmentState.
type FragmentState struct {
	Module     uint64             `json:"module"`
	EntryPoint string             `json:"entryPoint,omitempty"`
	Targets    []ColorTargetState `json:"targets"`
}

// PrimitiveState mirrors GPUPrimitiveState.
type PrimitiveState struct {
	Topology string `json:"topology,omitempty"`
	CullMode string `json:"cullMode,omitempty"`
}

// RenderPipelineDescriptor mirrors GPURenderPipelineDescriptor with an
// "auto" layout.
type RenderPipelineDescriptor struct {
	Label     string         `json:"label,omitempty"`
	Layout    string         `json:"layout"`
	Vertex    VertexState    `json:"vertex"`
	Fragment  *FragmentState `json:"fragment,omitempty"`
	Primitive PrimitiveState `json:"primitive"`
}

// CanvasConfiguration mirrors GPUCanvasConfiguration.
type CanvasConfiguration struct {
	Device    uint64 `json:"device"`
	Format    string `json:"format"`
	AlphaMode string `json:"alphaMode,omitempty"`
}

// Blend presets understood by the remote runtime.
const (
	BlendReplace       = ""
	BlendAlpha         = "alpha"
	BlendPremultiplied = "premultiplied"
)

// LayoutAuto asks the remote runtime to derive the pipeline layout.
const LayoutAuto = "auto"
