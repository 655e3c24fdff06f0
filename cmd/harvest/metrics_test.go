package main

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := newMetrics(prometheus.NewRegistry())

	m.hook("user-tweets", true, false)
	m.hook("user-tweets", true, false)
	m.hook("user-tweets", false, true)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("user-tweets", "true", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("user-tweets", "false", "true")))

	m.crawlDone(12, nil)
	m.crawlDone(0, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.crawls.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.crawls.WithLabelValues("error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.posts))
}
