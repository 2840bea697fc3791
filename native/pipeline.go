// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/gpubridge"
	"github.com/gogpu/gpubridge/cache"
	"github.com/gogpu/gpubridge/wire"
)

var compiled = cache.NewSharded[string, error](0, cache.StringHasher)

// validateWGSL compiles source with naga so syntax and type errors surface
// as compilation failures with naga's diagnostic.
func validateWGSL(source string) error {
	err := compiled.GetOrCreate(source, func() error {
		_, err := naga.Compile(source)
		return err
	})
	if err != nil {
		return fail(gpubridge.CauseCompilationError, "%v", err)
	}
	return nil
}

func entryPoint(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func vertexBuffers(in []wire.VertexBufferLayout) ([]gputypes.VertexBufferLayout, error) {
	out := make([]gputypes.VertexBufferLayout, 0, len(in))
	for i, b := range in {
		if b.StepMode != "" && b.StepMode != "vertex" {
			return nil, fmt.Errorf("buffer %d: step mode %q is not supported", i, b.StepMode)
		}
		attrs := make([]gputypes.VertexAttribute, 0, len(b.Attributes))
		for _, a := range b.Attributes {
			format, err := wire.ParseVertexFormat(a.Format)
			if err != nil {
				return nil, fmt.Errorf("buffer %d: %w", i, err)
			}
			attrs = append(attrs, gputypes.VertexAttribute{
				Format:         format,
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			})
		}
		out = append(out, gputypes.VertexBufferLayout{
			ArrayStride: b.ArrayStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  attrs,
		})
	}
	return out, nil
}

func colorTargets(in []wire.ColorTargetState) ([]gputypes.ColorTargetState, error) {
	out := make([]gputypes.ColorTargetState, 0, len(in))
	for i, t := range in {
		format, err := wire.ParseTextureFormat(t.Format)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
		blend, err := blendState(t.Blend)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
		out = append(out, gputypes.ColorTargetState{
			Format:    format,
			Blend:     blend,
			WriteMask: gputypes.ColorWriteMaskAll,
		})
	}
	return out, nil
}

// blendState expands a blend preset name. Replace is no blending at all.
func blendState(preset string) (*gputypes.BlendState, error) {
	switch preset {
	case wire.BlendReplace:
		return nil, nil
	case wire.BlendPremultiplied:
		b := gputypes.BlendStatePremultiplied()
		return &b, nil
	case wire.BlendAlpha:
		return &gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorSrcAlpha,
				DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
				Operation: gputypes.BlendOperationAdd,
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
				Operation: gputypes.BlendOperationAdd,
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown blend preset %q", preset)
}

func primitiveState(p wire.PrimitiveState) (gputypes.PrimitiveState, error) {
	if p.Topology != "" && p.Topology != "triangle-list" {
		return gputypes.PrimitiveState{}, fmt.Errorf("topology %q is not supported", p.Topology)
	}
	if p.CullMode != "" && p.CullMode != "none" {
		return gputypes.PrimitiveState{}, fmt.Errorf("cull mode %q is not supported", p.CullMode)
	}
	return gputypes.PrimitiveState{
		Topology: gputypes.PrimitiveTopologyTriangleList,
		CullMode: gputypes.CullModeNone,
	}, nil
}
