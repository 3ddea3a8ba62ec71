package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Transition("deposit", "next", "ok")
	m.Transition("deposit", "next", "ok")
	m.Transition("deposit", "submit", "rejected")
	m.ObserveCall("/transactions/plans/", "ok", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.wizardTransitions.WithLabelValues("deposit", "next", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wizardTransitions.WithLabelValues("deposit", "submit", "rejected")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.backendCalls))

	m.SetOpenWizards(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.openWizards))
}
