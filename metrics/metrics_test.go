package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSideEffectFailuresByKind(t *testing.T) {
	before := testutil.ToFloat64(SideEffectFailures.WithLabelValues("deleteBlob"))
	SideEffectFailures.WithLabelValues("deleteBlob").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SideEffectFailures.WithLabelValues("deleteBlob")))
}

func TestCollectorsRegistered(t *testing.T) {
	assert.Equal(t, 1, testutil.CollectAndCount(ScamReportsSubmitted))
}
