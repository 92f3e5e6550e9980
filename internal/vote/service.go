package vote

import (
	"context"
	"errors"

	"versusbot.dev/wreck-league-go/internal/accounts"
	"versusbot.dev/wreck-league-go/internal/match"
)

// ErrNoMatch is returned by Service.CurrentMatch when the remote service has
// no active match. It is a recoverable data-unavailable condition.
var ErrNoMatch = errors.New("no active match")

// ErrFuelExhausted is returned by a Scheduler whose account ran dry for too
// many consecutive cycles. It retires that account only; other schedulers
// keep running.
var ErrFuelExhausted = errors.New("account fuel exhausted")

// Service is the capability surface the scheduler requires from the remote
// voting service. Every call must honor the context and carry its own
// bounded timeout; all failures are recoverable from the scheduler's point
// of view.
type Service interface {
	// ResolveIdentity fills in the account's remote user id, lazily.
	ResolveIdentity(ctx context.Context, acct *accounts.Account) error
	// CurrentMatch returns the active match, or ErrNoMatch.
	CurrentMatch(ctx context.Context, acct *accounts.Account) (match.Match, error)
	// FuelBalance returns the account's current fuel. Callers treat an
	// error as a zero balance.
	FuelBalance(ctx context.Context, acct *accounts.Account) (int, error)
	// ClaimFuelReward attempts an out-of-band reward claim and returns the
	// amount granted. Failures are ignorable.
	ClaimFuelReward(ctx context.Context, acct *accounts.Account) (int, error)
	// SubmitVote spends fuelPoints on sideID in matchID.
	SubmitVote(ctx context.Context, acct *accounts.Account, matchID, sideID string, fuelPoints int) error
}
