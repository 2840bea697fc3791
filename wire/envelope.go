// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wire

// Request is one invocation sent over a message transport.
type Request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// Response answers the Request with the same ID. Exactly one of Ref,
// Result or Error is meaningful: Ref when the remote call produced an
// object, Result for plain values, Error when it threw.
type Response struct {
	ID     string       `json:"id"`
	OK     bool         `json:"ok"`
	Ref    *uint64      `json:"ref,omitempty"`
	Result Raw          `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries a remote failure. Cause is a machine-checkable name
// such as "DeviceLost" or "CompilationError".
type ErrorDetail struct {
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}
