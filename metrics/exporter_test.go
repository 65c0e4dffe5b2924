package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/kidd971/wps/mac"
)

func collectMetrics(t *testing.T, c *LQICollector) []*dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 64)
	c.Collect(ch)
	close(ch)

	var out []*dto.Metric
	for m := range ch {
		var pb dto.Metric
		require.NoError(t, m.Write(&pb))
		out = append(out, &pb)
	}
	return out
}

func TestLQICollectorExportsTrackedConnectionCounters(t *testing.T) {
	conn := mac.NewConnection(1, 2, 4, 4)
	conn.LQI.OnTxSuccess(10)
	conn.LQI.OnTxSuccess(10)
	conn.LQI.OnRxOverrun()

	collector := NewLQICollector("connection", prometheus.Labels{"node": "test"})
	collector.Track(1, conn, "telemetry")

	metrics := collectMetrics(t, collector)
	require.Len(t, metrics, 10, "one metric per LQI counter field")

	for _, m := range metrics {
		require.Len(t, m.Label, 2, "connection label plus const node label")
	}
}

func TestLQICollectorUntrackStopsExporting(t *testing.T) {
	conn := mac.NewConnection(1, 2, 4, 4)
	collector := NewLQICollector("connection", nil)
	collector.Track(1, conn, "telemetry")
	collector.Untrack(1)

	require.Empty(t, collectMetrics(t, collector))
}
