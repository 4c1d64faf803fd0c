package skiplist

import "sync/atomic"

// Metrics is a point-in-time snapshot of a list's contention and
// background-unlink counters. It is the observable health signal §4.10
// and §7 require for OrchestratorFailed: the list itself never corrupts
// state or surfaces unlink failures as errors from the public API, but
// callers that want to alert on a wedged orchestrator can poll it.
type Metrics struct {
	AddRetries       int64
	RemoveRetries    int64
	UnlinkJobsRun    int64
	UnlinkJobsFailed int64
}

// metrics holds the live atomic counters backing Metrics snapshots.
type metrics struct {
	addRetries       atomic.Int64
	removeRetries    atomic.Int64
	unlinkJobsRun    atomic.Int64
	unlinkJobsFailed atomic.Int64
}

func newMetrics() *metrics { return &metrics{} }

func (m *metrics) incAddRetry()     { m.addRetries.Add(1) }
func (m *metrics) incRemoveRetry()  { m.removeRetries.Add(1) }
func (m *metrics) incUnlinkRun()    { m.unlinkJobsRun.Add(1) }
func (m *metrics) incUnlinkFailed() { m.unlinkJobsFailed.Add(1) }

func (m *metrics) snapshot() Metrics {
	return Metrics{
		AddRetries:       m.addRetries.Load(),
		RemoveRetries:    m.removeRetries.Load(),
		UnlinkJobsRun:    m.unlinkJobsRun.Load(),
		UnlinkJobsFailed: m.unlinkJobsFailed.Load(),
	}
}
