// Package observability provides hooks for metrics, tracing, and progress.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about installer stages and about the individual decisions of
// the dedupe pass.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetDedupeHooks(&myDedupeHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnStageStart(ctx, "hoist")
//	// ... do work ...
//	observability.Pipeline().OnStageComplete(ctx, "hoist", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the installer stages.
type PipelineHooks interface {
	OnStageStart(ctx context.Context, stage string)
	// OnStageProgress reports done units of work out of total known so far.
	OnStageProgress(ctx context.Context, stage string, done, total int)
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)
}

// =============================================================================
// Dedupe Hooks
// =============================================================================

// DedupeHooks receives one event per decision of the hoist pass.
type DedupeHooks interface {
	// OnRemoved records a duplicate dropped in favor of a copy further up.
	OnRemoved(ctx context.Context, id, path string)

	// OnHoisted records a node moved to a shallower location.
	OnHoisted(ctx context.Context, id, from, to string)

	// OnAnomaly records a branch abandoned because the tree was inconsistent.
	OnAnomaly(ctx context.Context, path, reason string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, string)                          {}
func (NoopPipelineHooks) OnStageProgress(context.Context, string, int, int)             {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, time.Duration, error) {}

// NoopDedupeHooks is a no-op implementation of DedupeHooks.
type NoopDedupeHooks struct{}

func (NoopDedupeHooks) OnRemoved(context.Context, string, string)         {}
func (NoopDedupeHooks) OnHoisted(context.Context, string, string, string) {}
func (NoopDedupeHooks) OnAnomaly(context.Context, string, string)         {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	dedupeHooks   DedupeHooks   = NoopDedupeHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any install runs.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetDedupeHooks registers custom dedupe hooks.
func SetDedupeHooks(h DedupeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		dedupeHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Dedupe returns the registered dedupe hooks.
func Dedupe() DedupeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return dedupeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	dedupeHooks = NoopDedupeHooks{}
}
