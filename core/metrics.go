package core

import (
	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	watchEventsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "headlamp_watch_events_count",
		Help: "The total number of watch events applied to cached lists",
	}, []string{"kind", "type"})

	watchErrorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "headlamp_watch_errors_count",
		Help: "The total number of watch ERROR events reported",
	}, []string{"kind"})

	staleEventsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "headlamp_stale_events_count",
		Help: "The total number of watch events skipped for being older than the cached item",
	}, []string{"kind"})

	snapshotsPublishedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "headlamp_snapshots_published_count",
		Help: "The total number of list snapshots handed to subscribers",
	}, []string{"kind"})

	cachedScopesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "headlamp_cached_scopes_count",
		Help: "The number of lists currently held by the resource cache",
	})

	projectionEmissionsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "headlamp_projection_emissions_count",
		Help: "The total number of values emitted by throttled projectors",
	})
)

func kindLabel(scope domain.KindScope) string {
	if scope.Kind == nil {
		return ""
	}
	return scope.Kind.String()
}
