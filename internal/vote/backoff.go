package vote

import (
	"time"
)

// Policy holds the shared wait durations used on every retry path. No
// operation is ever retried in a tight loop: each recoverable failure maps
// to one of these sleeps.
type Policy struct {
	// RetryInterval is slept after a transient failure (network error,
	// malformed payload, unknown window) before re-polling.
	RetryInterval time.Duration
	// PollInterval paces next-match polling and pending-window re-checks.
	PollInterval time.Duration
	// MaxNextMatchWait bounds how long SeekingNextMatch polls before
	// giving up for this round.
	MaxNextMatchWait time.Duration
	// ExhaustedSleep is the longer pause taken after MaxNextMatchWait
	// expires, before the scheduler starts over from Idle.
	ExhaustedSleep time.Duration
	// MaxSleepSlice caps any single uninterrupted wait so cancellation and
	// re-validation stay responsive during long windows.
	MaxSleepSlice time.Duration
}

// DefaultPolicy mirrors the intervals the service's cadence was observed to
// tolerate: windows last minutes, matches roll over within the hour.
func DefaultPolicy() Policy {
	return Policy{
		RetryInterval:    30 * time.Second,
		PollInterval:     60 * time.Second,
		MaxNextMatchWait: 30 * time.Minute,
		ExhaustedSleep:   5 * time.Minute,
		MaxSleepSlice:    30 * time.Second,
	}
}

// normalized fills zero fields with defaults so a partially configured
// policy never produces busy loops.
func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.RetryInterval <= 0 {
		p.RetryInterval = d.RetryInterval
	}
	if p.PollInterval <= 0 {
		p.PollInterval = d.PollInterval
	}
	if p.MaxNextMatchWait <= 0 {
		p.MaxNextMatchWait = d.MaxNextMatchWait
	}
	if p.ExhaustedSleep <= 0 {
		p.ExhaustedSleep = d.ExhaustedSleep
	}
	if p.MaxSleepSlice <= 0 {
		p.MaxSleepSlice = d.MaxSleepSlice
	}
	return p
}
