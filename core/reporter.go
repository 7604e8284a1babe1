package core

import (
	"context"
	"sync"
	"time"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"istio.io/pkg/cache"
)

// ErrorReporter receives transport errors surfaced by watch streams.
type ErrorReporter interface {
	ReportError(ctx context.Context, scope domain.KindScope, err error)
}

// ErrorReporterFunc adapts a function to ErrorReporter.
type ErrorReporterFunc func(ctx context.Context, scope domain.KindScope, err error)

func (f ErrorReporterFunc) ReportError(ctx context.Context, scope domain.KindScope, err error) {
	f(ctx, scope, err)
}

// LogReporter logs and counts errors. Identical errors for the same scope are logged
// once per suppression window; every report is still counted.
type LogReporter struct {
	mu   sync.Mutex
	seen cache.ExpiringCache
}

var _ ErrorReporter = (*LogReporter)(nil)

// NewLogReporter returns a reporter; a zero window disables suppression.
func NewLogReporter(window time.Duration) *LogReporter {
	r := &LogReporter{}
	if window > 0 {
		r.seen = cache.NewTTL(window, window/2+time.Millisecond)
	}
	return r
}

func (r *LogReporter) ReportError(ctx context.Context, scope domain.KindScope, err error) {
	watchErrorsCounter.WithLabelValues(kindLabel(scope)).Inc()
	if r.suppressed(scope, err) {
		logger.L().Ctx(ctx).Debug("suppressed repeated watch error",
			helpers.String("scope", scope.String()),
			helpers.Error(err))
		return
	}
	logger.L().Ctx(ctx).Error("watch error",
		helpers.String("scope", scope.String()),
		helpers.Error(err))
}

func (r *LogReporter) suppressed(scope domain.KindScope, err error) bool {
	if r.seen == nil {
		return false
	}
	key := scope.String() + "|" + err.Error()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen.Get(key); ok {
		return true
	}
	r.seen.Set(key, struct{}{})
	return false
}
