// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpubridge

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Token is an opaque reference issued by the remote runtime for an object
// it owns. The zero Token never names a live object.
type Token uint64

// HandleKind identifies what a Handle refers to on the remote side.
type HandleKind uint8

// Handle kinds.
const (
	KindInvalid HandleKind = iota
	KindAdapter
	KindDevice
	KindCanvasContext
	KindBuffer
	KindShaderModule
	KindPipeline
)

func (k HandleKind) String() string {
	switch k {
	case KindAdapter:
		return "adapter"
	case KindDevice:
		return "device"
	case KindCanvasContext:
		return "canvas-context"
	case KindBuffer:
		return "buffer"
	case KindShaderModule:
		return "shader-module"
	case KindPipeline:
		return "pipeline"
	default:
		return "invalid"
	}
}

// Handle is an immutable reference to a browser-side GPU object.
//
// A Handle is owned by the code that created it. Passing it to another
// operation is a borrow; the owner remains responsible for Device.Release.
// A Handle is only valid on the Device that issued it.
type Handle struct {
	token Token
	kind  HandleKind
	owner uint64
}

// Token returns the remote token.
func (h Handle) Token() Token { return h.token }

// Kind returns the handle kind.
func (h Handle) Kind() HandleKind { return h.kind }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h == Handle{} }

func (h Handle) String() string { return fmt.Sprintf("%s#%d", h.kind, h.token) }

// lastOwner numbers handle tables. Remote runtimes number their tokens
// independently, so the token alone does not identify the issuer.
var lastOwner atomic.Uint64

// handleTable tracks the live handles issued through one Device.
type handleTable struct {
	owner uint64
	mu    sync.Mutex
	live  map[Token]HandleKind
}

func newHandleTable() *handleTable {
	return &handleTable{owner: lastOwner.Add(1), live: make(map[Token]HandleKind)}
}

// adopt registers a token returned by the remote runtime.
func (t *handleTable) adopt(tok Token, kind HandleKind) Handle {
	t.mu.Lock()
	t.live[tok] = kind
	t.mu.Unlock()
	return Handle{token: tok, kind: kind, owner: t.owner}
}

// check verifies h was issued here, is live and is of the wanted kind.
func (t *handleTable) check(op string, h Handle, want HandleKind) error {
	if h.owner != t.owner {
		return &HandleError{Handle: h, Op: op, Reason: "issued by another device"}
	}
	t.mu.Lock()
	kind, ok := t.live[h.token]
	t.mu.Unlock()
	switch {
	case !ok:
		return &HandleError{Handle: h, Op: op, Reason: "released or unknown"}
	case kind != h.kind:
		return &HandleError{Handle: h, Op: op, Reason: "kind does not match issued kind " + kind.String()}
	case want != KindInvalid && h.kind != want:
		return &HandleError{Handle: h, Op: op, Reason: "want " + want.String()}
	}
	return nil
}

// forget removes h and reports whether it was live. Handles issued by
// another table are never live here.
func (t *handleTable) forget(h Handle) bool {
	if h.owner != t.owner {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	kind, ok := t.live[h.token]
	if !ok || kind != h.kind {
		return false
	}
	delete(t.live, h.token)
	return true
}

func (t *handleTable) clear() {
	t.mu.Lock()
	clear(t.live)
	t.mu.Unlock()
}

func (t *handleTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}
