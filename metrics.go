package main

import (
	"fmt"
	"time"

	"github.com/shanebarnes/goto/logger"
)

// Metrics is a per-relay-direction odometer: total bytes moved and the
// average rate over the direction's lifetime, reported when it ends.
type Metrics struct {
	timeStartNs int64
	byteCount   int64
	tag         string
}

func MetricsNew(tag string) *Metrics {
	metrics := new(Metrics)
	metrics.timeStartNs = time.Now().UnixNano()
	metrics.tag = tag

	return metrics
}

func (m *Metrics) Add(bytes int64) {
	m.byteCount = m.byteCount + bytes
}

func (m *Metrics) Dump() {
	elapsedNs := time.Now().UnixNano() - m.timeStartNs
	if elapsedNs <= 0 {
		elapsedNs = 1
	}

	avgMbps := float64(m.byteCount) * 8. * 1000. / float64(elapsedNs)
	logger.PrintlnDebug(m.tag, fmt.Sprintf("moved %d bytes in %d ms (%.6f Mbps)", m.byteCount, elapsedNs/1000000, avgMbps))
}
