package models

// SourceStatus is the outcome of one adapter's run.
type SourceStatus string

const (
	StatusOK     SourceStatus = "ok"
	StatusFailed SourceStatus = "failed"
)

// SourceReport records how one source fared during a run.
type SourceReport struct {
	Source   Source       `json:"source"`
	Status   SourceStatus `json:"status"`
	Listings int          `json:"listings"`
	Reason   string       `json:"reason,omitempty"`
}

// RunResult is what a full orchestrator run hands to storage and
// presentation: the ranked properties plus the per-source breakdown.
type RunResult struct {
	Properties   []*Property    `json:"properties"`
	Reports      []SourceReport `json:"reports"`
	TotalScraped int            `json:"total_scraped"` // raw listings seen before dedup/filter
}
