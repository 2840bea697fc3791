// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpubridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
)

// ErrTransportNotAvailable is returned by Dial for an unregistered transport.
var ErrTransportNotAvailable = errors.New("gpubridge: transport not available")

// TransportFactory opens a Channel to the remote runtime at addr. The
// meaning of addr is transport specific (a WebSocket URL, a canvas
// selector, or empty).
type TransportFactory func(ctx context.Context, addr string) (Channel, error)

var (
	registryMu sync.RWMutex
	transports = make(map[string]TransportFactory)
)

// RegisterTransport registers a transport under name. Transport packages
// call it from init, so importing one is enough to make it available:
//
//	import _ "github.com/gogpu/gpubridge/wsbridge"
//
// Registering the same name again replaces the previous factory.
func RegisterTransport(name string, factory TransportFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	transports[name] = factory
}

// UnregisterTransport removes a transport. It is mainly useful in tests.
func UnregisterTransport(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(transports, name)
}

// Transports returns the registered transport names in sorted order.
func Transports() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(transports))
	for name := range transports {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dial opens a Channel using the named transport.
func Dial(ctx context.Context, name, addr string) (Channel, error) {
	registryMu.RLock()
	factory, ok := transports[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTransportNotAvailable, name)
	}
	ch, err := factory(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("gpubridge: dial %s: %w", name, err)
	}
	Logger().Info("gpubridge: transport connected", "transport", name, "addr", addr)
	return ch, nil
}

// Close closes ch if the transport holds resources.
func Close(ch Channel) error {
	if c, ok := ch.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
