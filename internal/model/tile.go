package model

import "time"

// Quadrants lists the four sub-tile quadrants of a quarter quad, in the
// canonical order used when expanding tile descriptors.
var Quadrants = []string{"nw", "ne", "sw", "se"}

// TileDescriptor names one NAIP tile: where it lives in the source bucket
// and where it lands in the destination. Descriptors are built once by the
// generator and never mutated.
type TileDescriptor struct {
	Year         int    `json:"year"`
	QuadID       string `json:"quad_id"`
	Quadrant     string `json:"quadrant"`
	SourceBucket string `json:"source_bucket"`
	SourceKey    string `json:"source_key"`
	DestKey      string `json:"dest_key"`
	Filename     string `json:"filename"`
	ZipCode      string `json:"zip_code"`
}

// OutcomeStatus is the terminal state of one tile transfer.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// TransferOutcome records how one tile ended up. Reason carries the error
// context for failed tiles; it is data, not a propagated error.
type TransferOutcome struct {
	Status   OutcomeStatus `json:"status"`
	Filename string        `json:"filename"`
	Reason   string        `json:"reason,omitempty"`
}

// RunResults groups tile filenames by outcome.
type RunResults struct {
	Successful []string `json:"successful"`
	Failed     []string `json:"failed"`
	Skipped    []string `json:"skipped"`
}

// RunSummary is the terminal artifact of one sync run. It is built once by
// the orchestrator and persisted to the destination bucket.
type RunSummary struct {
	Timestamp  time.Time  `json:"timestamp"`
	ZipCode    string     `json:"zip_code"`
	TotalTiles int        `json:"total_tiles"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Results    RunResults `json:"results"`
}

// RunStatus is the lifecycle state of a sync run in the local history.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SyncRun is one row of the local run history.
type SyncRun struct {
	ID        string      `json:"id"`
	ZipCode   string      `json:"zip_code"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
