package vote

import (
	"time"
)

// ErrKind classifies why a vote attempt did not succeed.
type ErrKind string

const (
	ErrKindNone             ErrKind = ""
	ErrKindNoSides          ErrKind = "no_sides"
	ErrKindInsufficientFuel ErrKind = "insufficient_fuel"
	ErrKindRejected         ErrKind = "rejected"
	ErrKindWindowClosed     ErrKind = "window_closed"
)

// AttemptResult is emitted once per scheduling cycle per account. Results
// are aggregated in memory for the cycle summary; persistence via a
// Recorder is an optional journal, never the source of truth.
type AttemptResult struct {
	AccountIndex int
	FID          int64
	MatchID      string
	SideID       string
	Success      bool
	FuelSpent    int
	ErrKind      ErrKind
	Message      string
	At           time.Time
}

// Recorder journals attempt results. Implementations must tolerate being
// called from multiple scheduler goroutines.
type Recorder interface {
	RecordAttempt(r AttemptResult) error
}
