package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	Observe("user", "save", "ok", time.Now())
	Observe("user", "save", "ok", time.Now())
	Observe("user", "save", "domain", time.Now())

	require.Equal(t, float64(2), testutil.ToFloat64(Operations.WithLabelValues("user", "save", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(Operations.WithLabelValues("user", "save", "domain")))
}
