package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(bookingCreated.WithLabelValues("series"))
	AddBookingsCreated("series", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(bookingCreated.WithLabelValues("series")))

	before = testutil.ToFloat64(bookingConflicts.WithLabelValues("update"))
	IncConflict("update")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingConflicts.WithLabelValues("update")))

	before = testutil.ToFloat64(bookingDeleted)
	AddBookingsDeleted(2)
	assert.Equal(t, before+2, testutil.ToFloat64(bookingDeleted))
}
