package session

import "sync/atomic"

// Metrics counts session work. Counters are safe to read from any
// goroutine.
type Metrics struct {
	Reparses      atomic.Uint64
	FullParses    atomic.Uint64
	Widenings     atomic.Uint64
	ReusedNodes   atomic.Uint64
	BuiltNodes    atomic.Uint64
	Plans         atomic.Uint64
	Jobs          atomic.Uint64
	CancelledJobs atomic.Uint64
	StaleResults  atomic.Uint64
	RemapFailures atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Reparses      uint64 `json:"reparses"`
	FullParses    uint64 `json:"full_parses"`
	Widenings     uint64 `json:"widenings"`
	ReusedNodes   uint64 `json:"reused_nodes"`
	BuiltNodes    uint64 `json:"built_nodes"`
	Plans         uint64 `json:"plans"`
	Jobs          uint64 `json:"jobs"`
	CancelledJobs uint64 `json:"cancelled_jobs"`
	StaleResults  uint64 `json:"stale_results"`
	RemapFailures uint64 `json:"remap_failures"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Reparses:      m.Reparses.Load(),
		FullParses:    m.FullParses.Load(),
		Widenings:     m.Widenings.Load(),
		ReusedNodes:   m.ReusedNodes.Load(),
		BuiltNodes:    m.BuiltNodes.Load(),
		Plans:         m.Plans.Load(),
		Jobs:          m.Jobs.Load(),
		CancelledJobs: m.CancelledJobs.Load(),
		StaleResults:  m.StaleResults.Load(),
		RemapFailures: m.RemapFailures.Load(),
	}
}
