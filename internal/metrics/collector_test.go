package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// TestCounters tests that the collectors are registered and increment
// TestCounters 测试采集器已注册并能递增
func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(LinesDropped.WithLabelValues("access"))
	LinesDropped.WithLabelValues("access").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(LinesDropped.WithLabelValues("access")))

	beforeTimeouts := testutil.ToFloat64(ReadTimeouts)
	ReadTimeouts.Inc()
	assert.Equal(t, beforeTimeouts+1, testutil.ToFloat64(ReadTimeouts))
}

// TestObserveSince tests histogram observation
// TestObserveSince 测试直方图观测
func TestObserveSince(t *testing.T) {
	ObserveSince("unit_test", time.Now().Add(-10*time.Millisecond))
	assert.Equal(t, 1, testutil.CollectAndCount(OperationDuration, "proxylens_operation_duration_seconds"))
}
