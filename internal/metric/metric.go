package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FeedFetches counts ICS feed fetch outcomes by result
// (ok, not_modified, cache_fallback, error).
var FeedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamcal_feed_fetches_total",
	Help: "ICS feed fetch attempts by outcome",
}, []string{"result"})

// CalendarLoads counts full calendar selection loads by outcome
// (ok, error, superseded).
var CalendarLoads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamcal_calendar_loads_total",
	Help: "Calendar selection loads by outcome",
}, []string{"result"})

// CalendarLoadSeconds observes the duration of full selection loads
// (fetch + parse + expand + install).
var CalendarLoadSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "streamcal_calendar_load_seconds",
	Help:    "Duration of calendar selection loads",
	Buckets: prometheus.DefBuckets,
})

// RangeExtensionsDropped counts month-range extension requests dropped
// because another extension was already in flight.
var RangeExtensionsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "streamcal_range_extensions_dropped_total",
	Help: "Month range extensions dropped while one was in flight",
})

// LoadedEvents reports how many events the active selection holds.
var LoadedEvents = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "streamcal_loaded_events",
	Help: "Events in the currently loaded calendar selection",
})
