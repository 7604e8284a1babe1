package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectedClientsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "headlamp_projection_connected_clients",
	Help: "The number of connected projection clients",
})

var subscriptionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "headlamp_projection_subscriptions",
	Help: "The number of active resource subscriptions",
})

var sentDocumentsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "headlamp_projection_documents_count",
	Help: "The number of resource documents sent to clients, by encoding",
}, []string{"encoding"})

var droppedClientsCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "headlamp_projection_dropped_clients_count",
	Help: "The number of clients disconnected because they did not keep up with their messages",
})
