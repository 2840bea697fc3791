// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wsbridge

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/gogpu/gpubridge"
)

// BreakerSettings tunes the circuit breaker installed by
// WithCircuitBreaker. Only transport failures and timeouts count against
// the breaker; remote errors mean the tab is alive and answering.
type BreakerSettings struct {
	// Name appears in state change logs.
	Name string

	// ConsecutiveFailures trips the breaker. Zero means 5.
	ConsecutiveFailures uint32

	// Cooldown is how long the breaker stays open before letting a probe
	// invocation through. Zero means 10s.
	Cooldown time.Duration
}

func newBreaker(s BreakerSettings) *gobreaker.CircuitBreaker {
	if s.Name == "" {
		s.Name = "wsbridge"
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.Cooldown == 0 {
		s.Cooldown = 10 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !(errors.Is(err, gpubridge.ErrTransport) || errors.Is(err, context.DeadlineExceeded))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			gpubridge.Logger().Warn("wsbridge: circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
}
