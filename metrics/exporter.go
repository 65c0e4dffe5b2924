// Package metrics exports per-connection link-quality counters (link.LQI)
// as Prometheus metrics. Modeled on runZeroInc-sockstats's TCPInfoCollector:
// a custom prometheus.Collector holding a labeled set of tracked entries,
// snapshotted fresh on every Collect call rather than cached.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kidd971/wps/mac"
)

type connEntry struct {
	conn   *mac.Connection
	labels []string
}

// LQICollector exports link.LQI's running counters for a set of tracked
// connections under the wps_lqi_* metric family.
type LQICollector struct {
	mu    sync.Mutex
	conns map[uint16]connEntry

	txSuccess   *prometheus.Desc
	txSuccessBytes *prometheus.Desc
	txFail      *prometheus.Desc
	txDrop      *prometheus.Desc
	rxReceived  *prometheus.Desc
	rxReceivedBytes *prometheus.Desc
	rxOverrun   *prometheus.Desc
	ccaPass     *prometheus.Desc
	ccaFail     *prometheus.Desc
	ccaTxFail   *prometheus.Desc
}

// NewLQICollector builds a collector. connectionLabel names the one label
// each metric carries (typically "connection"); constLabels are attached to
// every metric this collector emits (e.g. {"node": "coordinator"}).
func NewLQICollector(connectionLabel string, constLabels prometheus.Labels) *LQICollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("wps_lqi_"+name, help, []string{connectionLabel}, constLabels)
	}
	return &LQICollector{
		conns:           make(map[uint16]connEntry),
		txSuccess:       desc("tx_success_total", "Frames acknowledged successfully."),
		txSuccessBytes:  desc("tx_success_bytes_total", "Payload bytes acknowledged successfully."),
		txFail:          desc("tx_fail_total", "TX attempts that ended without an acknowledgement."),
		txDrop:          desc("tx_drop_total", "Queued frames dropped after an ARQ timeout."),
		rxReceived:      desc("rx_received_total", "Frames received and accepted."),
		rxReceivedBytes: desc("rx_received_bytes_total", "Payload bytes received and accepted."),
		rxOverrun:       desc("rx_overrun_total", "Frames lost to rx queue overrun."),
		ccaPass:         desc("cca_pass_total", "Clear-channel assessments that passed."),
		ccaFail:         desc("cca_fail_total", "Clear-channel assessments that failed."),
		ccaTxFail:       desc("cca_tx_fail_total", "TX attempts abandoned after repeated CCA failure."),
	}
}

// Track registers conn under label so its LQI counters appear in the next
// Collect. address should be the connection's SourceAddress, matching the
// key used by wps.Device's connection table.
func (c *LQICollector) Track(address uint16, conn *mac.Connection, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[address] = connEntry{conn: conn, labels: []string{label}}
}

// Untrack stops exporting the connection registered under address.
func (c *LQICollector) Untrack(address uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, address)
}

// Describe implements prometheus.Collector.
func (c *LQICollector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.txSuccess
	descs <- c.txSuccessBytes
	descs <- c.txFail
	descs <- c.txDrop
	descs <- c.rxReceived
	descs <- c.rxReceivedBytes
	descs <- c.rxOverrun
	descs <- c.ccaPass
	descs <- c.ccaFail
	descs <- c.ccaTxFail
}

// Collect implements prometheus.Collector, reading each tracked
// connection's LQI counters as they stand right now.
func (c *LQICollector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.conns {
		lqi := &entry.conn.LQI
		metrics <- prometheus.MustNewConstMetric(c.txSuccess, prometheus.CounterValue, float64(lqi.TxSuccessCount), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.txSuccessBytes, prometheus.CounterValue, float64(lqi.TxSuccessBytes), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.txFail, prometheus.CounterValue, float64(lqi.TxFailCount), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.txDrop, prometheus.CounterValue, float64(lqi.TxDropCount), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.rxReceived, prometheus.CounterValue, float64(lqi.RxReceivedCount), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.rxReceivedBytes, prometheus.CounterValue, float64(lqi.RxReceivedBytes), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.rxOverrun, prometheus.CounterValue, float64(lqi.RxOverrunCount), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.ccaPass, prometheus.CounterValue, float64(lqi.CCAPassCount), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.ccaFail, prometheus.CounterValue, float64(lqi.CCAFailCount), entry.labels...)
		metrics <- prometheus.MustNewConstMetric(c.ccaTxFail, prometheus.CounterValue, float64(lqi.CCATxFailCount), entry.labels...)
	}
}
