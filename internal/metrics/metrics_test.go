package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomain(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, err := NewDomain(reg)
	require.NoError(t, err)

	d.BookMutations.WithLabelValues("create").Inc()
	d.LiveSubscribers.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(d.BookMutations.WithLabelValues("create")))
	assert.Equal(t, float64(1), testutil.ToFloat64(d.LiveSubscribers))

	_, err = NewDomain(reg)
	assert.Error(t, err, "registering twice on one registry must fail")
}
