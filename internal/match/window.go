package match

import (
	"time"
)

// Phase classifies where "now" falls relative to a match's voting window.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhasePending
	PhaseOpen
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Window is the result of classifying a match against a point in time.
// Wait is meaningful only for PhasePending (time until voting starts),
// Remaining only for PhaseOpen (time until voting ends).
type Window struct {
	Phase     Phase
	Wait      time.Duration
	Remaining time.Duration
}

// Classify is a pure function of (match, now). All comparisons happen in
// UTC; timezone-naive timestamps from the remote side are assumed UTC at
// parse time. Missing or inverted timestamps yield PhaseUnknown, never an
// error - the condition is transient and the caller just retries.
func Classify(m Match, now time.Time) Window {
	if m.VotingStart == nil || m.VotingEnd == nil {
		return Window{Phase: PhaseUnknown}
	}

	start := m.VotingStart.UTC()
	end := m.VotingEnd.UTC()
	now = now.UTC()

	if end.Before(start) {
		return Window{Phase: PhaseUnknown}
	}

	switch {
	case now.Before(start):
		return Window{Phase: PhasePending, Wait: start.Sub(now)}
	case now.After(end):
		return Window{Phase: PhaseClosed}
	default:
		return Window{Phase: PhaseOpen, Remaining: end.Sub(now)}
	}
}
