package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks logs every event at debug level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to l under the "obs" prefix.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l.WithPrefix("obs")}
}

// All returns a Hooks value with l in every slot.
func (l *LogHooks) All() Hooks { return Hooks{Pipeline: l, Cache: l, HTTP: l} }

func (l *LogHooks) OnLoadStart(_ context.Context, source string) {
	l.logger.Debug("load start", "source", source)
}

func (l *LogHooks) OnLoadComplete(_ context.Context, source string, employees int, d time.Duration, err error) {
	l.done("load", err, "source", source, "employees", employees, "elapsed", d)
}

func (l *LogHooks) OnLayoutStart(_ context.Context, orientation string, nodes int) {
	l.logger.Debug("layout start", "orientation", orientation, "nodes", nodes)
}

func (l *LogHooks) OnLayoutComplete(_ context.Context, orientation string, d time.Duration, err error) {
	l.done("layout", err, "orientation", orientation, "elapsed", d)
}

func (l *LogHooks) OnRenderStart(_ context.Context, format string) {
	l.logger.Debug("render start", "format", format)
}

func (l *LogHooks) OnRenderComplete(_ context.Context, format, stage string, d time.Duration, err error) {
	l.done("render", err, "format", format, "stage", stage, "elapsed", d)
}

func (l *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	l.logger.Debug("cache hit", "stage", keyType)
}

func (l *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	l.logger.Debug("cache miss", "stage", keyType)
}

func (l *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	l.logger.Debug("cache set", "stage", keyType, "bytes", size)
}

func (l *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	l.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (l *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	l.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "elapsed", d)
}

func (l *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	l.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

func (l *LogHooks) done(op string, err error, kv ...any) {
	if err != nil {
		l.logger.Debug(op+" failed", append(kv, "err", err)...)
		return
	}
	l.logger.Debug(op+" done", kv...)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
