// Package metrics exposes the service's prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convoy_events_total",
		Help: "Inbound events processed, by type.",
	}, []string{"type"})

	MessagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "convoy_messages_relayed_total",
		Help: "Messages that passed moderation and were relayed.",
	})

	MessagesDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convoy_messages_denied_total",
		Help: "Messages dropped before relay, by reason.",
	}, []string{"reason"})

	NearbyNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "convoy_nearby_notifications_total",
		Help: "Cross-room proximity notifications raised.",
	})

	ConnectedSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "convoy_connected_sessions",
		Help: "Currently connected websocket sessions.",
	})
)
