package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics records domain-level counters for the wishlist service.
type APIMetrics struct {
	reservationConflicts *prometheus.CounterVec
	imageFetches         *prometheus.CounterVec
	imageFetchDuration   *prometheus.HistogramVec
	loginAttempts        *prometheus.CounterVec
}

// NewAPIMetrics registers the service metrics on the provided registerer.
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	if reg == nil {
		return &APIMetrics{}
	}
	reservationConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_conflicts_total",
		Help: "Reservation attempts rejected because the item was already reserved.",
	}, []string{"kind"})
	imageFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "image_fetches_total",
		Help: "External image acquisition attempts by outcome.",
	}, []string{"outcome"})
	imageFetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "image_fetch_duration_seconds",
		Help:    "Duration of external image fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	loginAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Login and route-resolution attempts by outcome.",
	}, []string{"surface", "outcome"})
	reg.MustRegister(reservationConflicts, imageFetches, imageFetchDuration, loginAttempts)
	return &APIMetrics{
		reservationConflicts: reservationConflicts,
		imageFetches:         imageFetches,
		imageFetchDuration:   imageFetchDuration,
		loginAttempts:        loginAttempts,
	}
}

// IncReservationConflict increments the conflict counter. kind distinguishes
// the pre-check rejection from the unique-index race.
func (m *APIMetrics) IncReservationConflict(kind string) {
	if m == nil || m.reservationConflicts == nil {
		return
	}
	m.reservationConflicts.WithLabelValues(normalizeLabel(kind)).Inc()
}

// ObserveImageFetch records one image acquisition attempt.
func (m *APIMetrics) ObserveImageFetch(outcome string, duration time.Duration) {
	if m == nil || m.imageFetches == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.imageFetches.WithLabelValues(label).Inc()
	m.imageFetchDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncLoginAttempt records a login or route-resolution attempt.
func (m *APIMetrics) IncLoginAttempt(surface, outcome string) {
	if m == nil || m.loginAttempts == nil {
		return
	}
	m.loginAttempts.WithLabelValues(normalizeLabel(surface), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
