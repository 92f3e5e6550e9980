package bot

import (
	"fmt"
	"time"

	"versusbot.dev/wreck-league-go/internal/match"
	"versusbot.dev/wreck-league-go/internal/vote"
)

// ExecutionMode selects how accounts are scheduled.
type ExecutionMode int

const (
	// ModeSequential iterates accounts within one shared cycle.
	ModeSequential ExecutionMode = iota
	// ModeConcurrent runs one scheduler goroutine per account.
	ModeConcurrent
)

func (m ExecutionMode) String() string {
	switch m {
	case ModeConcurrent:
		return "concurrent"
	default:
		return "sequential"
	}
}

// Config carries every setting the orchestrator and schedulers consume. It
// is built once at startup and passed down explicitly; nothing reads shared
// mutable globals.
type Config struct {
	// Voting behavior
	Team             match.Preference
	Strategy         vote.FuelStrategy
	MinFuelThreshold int
	MinDelay         time.Duration
	MaxDelay         time.Duration
	Mode             ExecutionMode

	// Scheduling cadence
	MaxNextMatchWait time.Duration
	RetryInterval    time.Duration
	PollInterval     time.Duration
	ExhaustedSleep   time.Duration
	MaxSleepSlice    time.Duration

	// Account lifecycle
	MaxExhaustedCycles int

	// Remote service
	VersusBaseURL   string
	WarpcastBaseURL string
	RequestTimeout  time.Duration

	// Inputs and bookkeeping
	TokenFile    string
	ManifestFile string
	DatabasePath string
	JournalVotes bool

	// Logging
	LogLevel string
}

// Validate rejects configurations the scheduler cannot run with.
func (c *Config) Validate() error {
	if c.MinFuelThreshold < 1 {
		return fmt.Errorf("minFuelThreshold must be >= 1, got %d", c.MinFuelThreshold)
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("delay range [%v, %v] is invalid", c.MinDelay, c.MaxDelay)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("requestTimeout must be positive, got %v", c.RequestTimeout)
	}
	if c.TokenFile == "" && c.ManifestFile == "" && c.DatabasePath == "" {
		return fmt.Errorf("no account source configured (token file, manifest, or database)")
	}
	return nil
}

// Policy maps the cadence settings onto the scheduler's retry policy.
func (c *Config) Policy() vote.Policy {
	return vote.Policy{
		RetryInterval:    c.RetryInterval,
		PollInterval:     c.PollInterval,
		MaxNextMatchWait: c.MaxNextMatchWait,
		ExhaustedSleep:   c.ExhaustedSleep,
		MaxSleepSlice:    c.MaxSleepSlice,
	}
}
