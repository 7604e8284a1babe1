package ui

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var dispatchedEventsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "headlamp_ui_dispatched_events_count",
	Help: "The number of UI events applied to the state store",
}, []string{"type"})

var processorFailuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "headlamp_processor_failures_count",
	Help: "The number of pipeline stages skipped because they failed",
}, []string{"pipeline"})

var effectFailuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "headlamp_ui_effect_failures_count",
	Help: "The number of failed preference writes and theme applications",
}, []string{"effect"})
