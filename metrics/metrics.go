// Package metrics exposes the service's Prometheus instruments on the
// default registry; routes mount promhttp for scraping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_store_writes_total",
		Help: "Whole-value writes persisted by the keyed store.",
	})

	BusPublishes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_bus_publishes_total",
		Help: "Snapshots published on the in-process change bus.",
	})

	BusHandlerPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_bus_handler_panics_total",
		Help: "Subscriber callbacks recovered after panicking.",
	})

	NotifyDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_notify_deliveries_total",
		Help: "Cross-process change notifications re-delivered locally.",
	})

	NotifySelfSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_notify_self_skips_total",
		Help: "Notifications skipped because this process originated them.",
	})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_websocket_clients",
		Help: "Websocket clients currently attached to live rooms.",
	})
)
