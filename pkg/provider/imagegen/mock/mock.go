// Package mock provides a configurable imagegen.Provider test double.
package mock

import (
	"context"
	"sync"

	"github.com/ashfall-games/scenecaster/pkg/provider/imagegen"
)

// Provider is a test double for [imagegen.Provider]. Each call to Generate
// pops the next entry from Responses (or returns Err if non-nil); once
// Responses is exhausted, the last entry is returned repeatedly.
type Provider struct {
	mu sync.Mutex

	// Responses are returned in order on successive Generate calls.
	Responses []*imagegen.Response

	// Err, when non-nil, is returned by every Generate call instead of a
	// Responses entry.
	Err error

	// Requests records every request Generate was called with, in order.
	Requests []imagegen.Request

	calls int
}

// Generate implements imagegen.Provider.
func (p *Provider) Generate(_ context.Context, req imagegen.Request) (*imagegen.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Requests = append(p.Requests, req)
	idx := p.calls
	p.calls++

	if p.Err != nil {
		return nil, p.Err
	}
	if len(p.Responses) == 0 {
		return &imagegen.Response{Images: []imagegen.Image{{URL: "https://example.test/mock.png"}}}, nil
	}
	if idx >= len(p.Responses) {
		idx = len(p.Responses) - 1
	}
	return p.Responses[idx], nil
}

// CallCount returns the number of times Generate has been called.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
