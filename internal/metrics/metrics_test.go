package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(ValuationFallbacksTotal)
	ValuationFallbacksTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ValuationFallbacksTotal))

	before = testutil.ToFloat64(ValuationsTotal.WithLabelValues("high"))
	ValuationsTotal.WithLabelValues("high").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ValuationsTotal.WithLabelValues("high")))
}

func TestCacheLookupOutcomes(t *testing.T) {
	ReferenceCacheHitsTotal.WithLabelValues("hit").Inc()
	ReferenceCacheHitsTotal.WithLabelValues("miss").Inc()

	assert.GreaterOrEqual(t, testutil.ToFloat64(ReferenceCacheHitsTotal.WithLabelValues("hit")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(ReferenceCacheHitsTotal.WithLabelValues("miss")), 1.0)
}
