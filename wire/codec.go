// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wire defines the serializable form of everything that crosses the
// interop boundary: WebGPU-shaped descriptors, the enum names the browser
// expects, and the request/response envelope used by message transports.
//
// All JSON goes through a single jsoniter configuration compatible with
// encoding/json, so values produced here decode identically on both sides.
package wire

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

// JSON is the codec used for every wire value.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// Marshal is a shorthand for JSON.Marshal.
	Marshal = JSON.Marshal

	// Unmarshal is a shorthand for JSON.Unmarshal.
	Unmarshal = JSON.Unmarshal
)

// Raw is an undecoded JSON result. Channels return it for values whose Go
// type is only known to the caller of Invoke.
type Raw = json.RawMessage

// Convert re-encodes v into out. It is how positional arguments and results
// of loosely typed transports reach their concrete Go types.
func Convert(v, out any) error {
	if raw, ok := v.(Raw); ok {
		return Unmarshal(raw, out)
	}
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	return Unmarshal(data, out)
}
