package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestJoinHostPort(t *testing.T) {
	assert.Equal(t, ":9327", JoinHostPort("", 9327))
	assert.Equal(t, "127.0.0.1:9327", JoinHostPort("127.0.0.1", 9327))
	assert.Equal(t, "[::1]:9327", JoinHostPort("::1", 9327))
}

func TestSplitErrorCounter(t *testing.T) {
	before := testutil.ToFloat64(EcSplitErrorCounter.WithLabelValues(ErrorNoMem))
	EcSplitErrorCounter.WithLabelValues(ErrorNoMem).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(EcSplitErrorCounter.WithLabelValues(ErrorNoMem)))
}
