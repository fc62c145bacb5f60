package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "evgrid_"

// Result labels for booking attempts.
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	registerOnce sync.Once

	bookingAttempts *prometheus.CounterVec
	bookingsExpired prometheus.Counter
	sessionEvents   *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
)

// Init registers the service metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		bookingAttempts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "booking_attempts_total",
				Help: "Booking creation attempts by result",
			},
			[]string{"result"},
		)
		bookingsExpired = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "bookings_expired_total",
				Help: "Bookings expired by the sweep",
			},
		)
		sessionEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "charging_session_events_total",
				Help: "Charging session lifecycle events",
			},
			[]string{"event"},
		)
		requestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		prometheus.MustRegister(bookingAttempts, bookingsExpired, sessionEvents, requestLatency)
	})
}

// ObserveBookingAttempt counts one booking creation attempt.
func ObserveBookingAttempt(result string) {
	if bookingAttempts != nil {
		bookingAttempts.WithLabelValues(result).Inc()
	}
}

// AddExpiredBookings counts swept bookings.
func AddExpiredBookings(n int) {
	if bookingsExpired != nil && n > 0 {
		bookingsExpired.Add(float64(n))
	}
}

// ObserveSessionEvent counts a charging start/stop.
func ObserveSessionEvent(event string) {
	if sessionEvents != nil {
		sessionEvents.WithLabelValues(event).Inc()
	}
}

// ObserveRequest records one request's latency under a route label.
func ObserveRequest(route string, elapsed time.Duration) {
	if requestLatency != nil {
		requestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
	}
}

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
