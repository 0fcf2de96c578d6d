package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbooking",
			Name:      "booking_created_total",
			Help:      "Count of bookings created, split by standalone and series rows.",
		},
		[]string{"kind"},
	)

	bookingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbooking",
			Name:      "booking_conflicts_total",
			Help:      "Count of mutations rejected because of slot conflicts.",
		},
		[]string{"operation"},
	)

	seriesRegenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courtbooking",
			Name:      "series_regenerated_total",
			Help:      "Count of recurring series regenerated from an edited anchor.",
		},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courtbooking",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled.",
		},
	)

	bookingDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courtbooking",
			Name:      "booking_deleted_total",
			Help:      "Count of bookings deleted.",
		},
	)

	bookingCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courtbooking",
			Name:      "booking_completed_total",
			Help:      "Count of bookings marked completed by the worker.",
		},
	)

	notifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbooking",
			Name:      "notification_failures_total",
			Help:      "Count of booking notifications that could not be published.",
		},
		[]string{"event"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingConflicts, seriesRegenerated,
			bookingCancelled, bookingDeleted, bookingCompleted, notifyFailures)
	})
}

func AddBookingsCreated(kind string, n int) {
	bookingCreated.WithLabelValues(kind).Add(float64(n))
}

func IncConflict(operation string) {
	bookingConflicts.WithLabelValues(operation).Inc()
}

func IncSeriesRegenerated() {
	seriesRegenerated.Inc()
}

func AddBookingsCancelled(n int) {
	bookingCancelled.Add(float64(n))
}

func AddBookingsDeleted(n int) {
	bookingDeleted.Add(float64(n))
}

func AddBookingsCompleted(n int) {
	bookingCompleted.Add(float64(n))
}

func IncNotifyFailure(event string) {
	notifyFailures.WithLabelValues(event).Inc()
}
