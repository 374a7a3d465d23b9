// Package session owns the loaded network graph for the lifetime of a
// process and rebuilds it on demand.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/feedergraph/feedergraph/internal/network"
)

// Loader builds a fresh graph.
type Loader func(ctx context.Context) (*network.Graph, error)

// Info describes the cached graph.
type Info struct {
	Cached   bool      `json:"isCached"`
	Version  int       `json:"version"`
	Nodes    int       `json:"nodeCount"`
	Links    int       `json:"linkCount"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
}

// Handle caches the graph produced by a Loader. It is safe for concurrent
// use; the graph it hands out is read-only.
type Handle struct {
	load   Loader
	logger *slog.Logger

	mu       sync.RWMutex
	graph    *network.Graph
	version  int
	loadedAt time.Time

	// serializes loads so concurrent callers of Graph share one build
	loadMu sync.Mutex
	now    func() time.Time
}

// New returns a Handle backed by load. A nil logger means slog.Default().
func New(load Loader, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		load:   load,
		logger: logger.With("component", "session"),
		now:    time.Now,
	}
}

// Graph returns the cached graph, building it on first use.
func (h *Handle) Graph(ctx context.Context) (*network.Graph, error) {
	h.mu.RLock()
	g := h.graph
	h.mu.RUnlock()
	if g != nil {
		return g, nil
	}

	h.loadMu.Lock()
	defer h.loadMu.Unlock()

	// another caller may have finished loading while we waited
	h.mu.RLock()
	g = h.graph
	h.mu.RUnlock()
	if g != nil {
		return g, nil
	}
	return h.build(ctx)
}

// Reload rebuilds the graph unconditionally. On failure the previous graph
// stays in place.
func (h *Handle) Reload(ctx context.Context) (*network.Graph, error) {
	h.loadMu.Lock()
	defer h.loadMu.Unlock()
	return h.build(ctx)
}

// Invalidate drops the cached graph; the next Graph call rebuilds it.
func (h *Handle) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph = nil
	h.version++
	h.logger.Debug("graph cache cleared", "version", h.version)
}

// Info reports the state of the cache.
func (h *Handle) Info() Info {
	h.mu.RLock()
	defer h.mu.RUnlock()
	info := Info{Cached: h.graph != nil, Version: h.version}
	if h.graph != nil {
		info.Nodes = h.graph.Len()
		info.Links = len(h.graph.Links)
		info.LoadedAt = h.loadedAt
	}
	return info
}

// build must be called with loadMu held.
func (h *Handle) build(ctx context.Context) (*network.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := h.now()
	g, err := h.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading network: %w", err)
	}

	h.mu.Lock()
	h.graph = g
	h.version++
	h.loadedAt = h.now()
	version := h.version
	h.mu.Unlock()

	h.logger.Info("network loaded",
		"nodes", g.Len(),
		"links", len(g.Links),
		"version", version,
		"elapsed", h.now().Sub(start))
	return g, nil
}
