// Package observability lets a binary observe the chart pipeline, the
// caches and outgoing HTTP calls without the libraries depending on a
// metrics or tracing backend.
//
// Libraries emit events through the registered hooks:
//
//	observability.Pipeline().OnLoadStart(ctx, src.Path())
//	// ... read records and build the hierarchy ...
//	observability.Pipeline().OnLoadComplete(ctx, src.Path(), employees, elapsed, err)
//
// Binaries register implementations once at startup. Unset hook sets stay
// no-ops:
//
//	observability.Register(observability.Hooks{Cache: myCacheMetrics})
//
// [LogHooks] writes every event to a charmbracelet logger at debug level;
// the CLI registers it under --verbose.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks receives events from the load → layout → render pipeline.
type PipelineHooks interface {
	// OnLoadStart and OnLoadComplete bracket reading directory records and
	// building the hierarchy.
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, employees int, duration time.Duration, err error)

	OnLayoutStart(ctx context.Context, orientation string, nodeCount int)
	OnLayoutComplete(ctx context.Context, orientation string, duration time.Duration, err error)

	// OnRenderComplete reports the stage that produced the output, such
	// as "rsvg" or "raster" for PNG.
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format, stage string, duration time.Duration, err error)
}

// CacheHooks receives cache events. keyType is the cached stage: "tree",
// "artifact" or "photo".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from outgoing requests: photo fetches and the
// chart backend client.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError reports transport failures. No response was received.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopPipelineHooks ignores pipeline events. Embed it to implement a
// subset.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                                    {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                             {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error)         {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string)                                  {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, string, time.Duration, error) {}

// NoopCacheHooks ignores cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// Hooks is one implementation per event category. Nil fields leave the
// current registration in place.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
}

func noop() *Hooks {
	return &Hooks{Pipeline: NoopPipelineHooks{}, Cache: NoopCacheHooks{}, HTTP: NoopHTTPHooks{}}
}

var registry atomic.Pointer[Hooks]

func init() { registry.Store(noop()) }

// Register installs h. Call it at startup, before the pipeline runs.
func Register(h Hooks) {
	for {
		cur := registry.Load()
		next := *cur
		if h.Pipeline != nil {
			next.Pipeline = h.Pipeline
		}
		if h.Cache != nil {
			next.Cache = h.Cache
		}
		if h.HTTP != nil {
			next.HTTP = h.HTTP
		}
		if registry.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return registry.Load().Pipeline }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return registry.Load().Cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return registry.Load().HTTP }

// Reset restores the no-op hooks.
func Reset() { registry.Store(noop()) }
