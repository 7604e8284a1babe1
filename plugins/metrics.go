package plugins

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pluginsLoadedGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "headlamp_plugins_loaded",
	Help: "The number of loaded plugins",
})

var pluginFailuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "headlamp_plugin_failures_count",
	Help: "The number of plugin initializations that failed",
}, []string{"plugin"})
