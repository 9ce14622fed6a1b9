package model

import "time"

// StageSummary captures metrics from one pipeline stage.
type StageSummary struct {
	Stage       string
	RowsIn      int64
	RowsOut     int64
	RowsDropped int64
	Filled      map[string]int
	FailedUnits []int // years whose work unit failed
	Output      string
	Duration    time.Duration
}

// RunSummary aggregates a full pipeline run.
type RunSummary struct {
	Stages        []StageSummary
	DurationTotal time.Duration
}

// Partial reports whether any stage had failed work units.
func (s *RunSummary) Partial() bool {
	for _, st := range s.Stages {
		if len(st.FailedUnits) > 0 {
			return true
		}
	}
	return false
}
