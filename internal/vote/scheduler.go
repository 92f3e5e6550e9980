package vote

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"versusbot.dev/wreck-league-go/internal/accounts"
	"versusbot.dev/wreck-league-go/internal/match"
)

// Options configures one Scheduler instance. Configuration is passed in at
// construction and never read from shared globals.
type Options struct {
	Strategy   FuelStrategy
	Preference match.Preference // used when the account itself says auto

	// MinDelay/MaxDelay bound the randomized pre-vote jitter.
	MinDelay time.Duration
	MaxDelay time.Duration

	Policy Policy

	// Seed seeds this scheduler's private random source. Each account gets
	// its own seed so jitter stays decorrelated across accounts.
	Seed int64

	// MaxExhaustedCycles retires the account after this many consecutive
	// insufficient-fuel cycles. Zero disables retirement.
	MaxExhaustedCycles int

	// Journal, when set, receives every attempt result. Journal failures
	// are logged, never propagated.
	Journal Recorder
}

// Scheduler runs the per-account voting state machine:
//
//	Idle -> AwaitingWindow -> Voting -> CooldownUntilClose ->
//	SeekingNextMatch -> AwaitingWindow -> ...
//
// Every external failure degrades to a bounded sleep and retry; the only
// terminal conditions are context cancellation and fuel exhaustion.
type Scheduler struct {
	svc     Service
	acct    *accounts.Account
	opts    Options
	results chan<- AttemptResult
	log     *logrus.Entry
	rng     *rand.Rand

	// now is swappable in tests; production always uses the wall clock.
	now func() time.Time

	votedOnce   bool
	lastMatchID string
	dryStreak   int
}

// NewScheduler builds a scheduler for one account. results may be nil when
// the caller does not aggregate (e.g. one-shot commands).
func NewScheduler(svc Service, acct *accounts.Account, opts Options, results chan<- AttemptResult, log *logrus.Entry) *Scheduler {
	opts.Policy = opts.Policy.normalized()
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano() + int64(acct.Index)
	}
	return &Scheduler{
		svc:     svc,
		acct:    acct,
		opts:    opts,
		results: results,
		log:     log,
		rng:     rand.New(rand.NewSource(seed)),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run loops the state machine until the context is cancelled or the account
// is retired for fuel exhaustion.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		err := s.cycle(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err == nil:
		case errors.Is(err, ErrFuelExhausted):
			s.log.Warn("retiring account: fuel exhausted across consecutive cycles")
			return err
		default:
			s.log.WithError(err).Warn("cycle failed, backing off")
			if !sleepCtx(ctx, s.opts.Policy.RetryInterval) {
				return ctx.Err()
			}
		}
	}
}

// cycle performs one pass through the state machine: fetch, await the
// window, vote, cool down, seek the next match.
func (s *Scheduler) cycle(ctx context.Context) error {
	if !s.acct.Resolved() {
		if err := s.svc.ResolveIdentity(ctx, s.acct); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"fid": s.acct.FID(), "username": s.acct.Username()}).Info("resolved account identity")
	}

	m, err := s.svc.CurrentMatch(ctx, s.acct)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			return s.seekNextMatch(ctx)
		}
		return err
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		w := match.Classify(m, s.now())
		switch w.Phase {
		case match.PhasePending:
			s.log.WithField("starts_in", w.Wait.Round(time.Second)).Debug("voting window pending")
			if !sleepCtx(ctx, minDuration(w.Wait, s.opts.Policy.MaxSleepSlice)) {
				return ctx.Err()
			}

		case match.PhaseUnknown:
			s.log.Debug("window state unknown, retrying")
			if !sleepCtx(ctx, s.opts.Policy.RetryInterval) {
				return ctx.Err()
			}

		case match.PhaseClosed:
			s.lastMatchID = m.ID
			return s.seekNextMatch(ctx)

		case match.PhaseOpen:
			if m.Voted {
				s.log.WithField("match", m.ID).Info("already voted in this match, waiting for close")
				s.lastMatchID = m.ID
				if err := s.coolDownUntilClose(ctx, m); err != nil {
					return err
				}
				return s.seekNextMatch(ctx)
			}

			if delay := s.preVoteDelay(); delay > 0 {
				s.log.WithField("delay", delay.Round(time.Millisecond)).Debug("applying pre-vote jitter")
				if !sleepCtx(ctx, delay) {
					return ctx.Err()
				}
				// The delay may have outlived the window; re-classify
				// before committing fuel.
				if match.Classify(m, s.now()).Phase != match.PhaseOpen {
					continue
				}
			}

			res := s.voteOnce(ctx, m)
			s.emit(res)
			s.votedOnce = true
			s.lastMatchID = m.ID

			if res.ErrKind == ErrKindInsufficientFuel {
				s.dryStreak++
				if s.opts.MaxExhaustedCycles > 0 && s.dryStreak >= s.opts.MaxExhaustedCycles {
					return ErrFuelExhausted
				}
			} else {
				s.dryStreak = 0
			}

			if err := s.coolDownUntilClose(ctx, m); err != nil {
				return err
			}
			return s.seekNextMatch(ctx)
		}

		// Pending/Unknown wake up here; re-fetch so a replaced match is
		// noticed by id instead of trusting stale data across the sleep.
		refreshed, err := s.svc.CurrentMatch(ctx, s.acct)
		if err != nil {
			if errors.Is(err, ErrNoMatch) {
				return s.seekNextMatch(ctx)
			}
			return err
		}
		m = refreshed
	}
}

// voteOnce performs the Voting state for one open window: claim, refresh
// fuel, apply the strategy, pick a side, submit. It always returns a result,
// success or not.
func (s *Scheduler) voteOnce(ctx context.Context, m match.Match) AttemptResult {
	res := AttemptResult{
		AccountIndex: s.acct.Index,
		FID:          s.acct.FID(),
		MatchID:      m.ID,
		At:           s.now(),
	}

	// Fuel can be granted out of band; try the claim but never let it block
	// the vote.
	if granted, err := s.svc.ClaimFuelReward(ctx, s.acct); err != nil {
		s.log.WithError(err).Debug("fuel reward claim failed")
	} else if granted > 0 {
		s.log.WithField("granted", granted).Info("claimed fuel reward")
	}

	balance, err := s.svc.FuelBalance(ctx, s.acct)
	if err != nil {
		s.log.WithError(err).Warn("fuel balance lookup failed, treating as zero")
		balance = 0
	}
	s.acct.SetFuel(balance)

	spend, ok := s.opts.Strategy.Spend(balance)
	if !ok {
		s.log.WithField("balance", balance).Info("insufficient fuel, skipping cycle")
		res.ErrKind = ErrKindInsufficientFuel
		return res
	}

	pref := s.acct.Preference
	if pref == match.PreferenceAuto {
		pref = s.opts.Preference
	}
	side, ok := match.ChooseSide(m.Sides, pref)
	if !ok {
		res.ErrKind = ErrKindNoSides
		return res
	}
	res.SideID = side.ID

	if err := s.svc.SubmitVote(ctx, s.acct, m.ID, side.ID, spend); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"match": m.ID, "side": side.ID}).Warn("vote rejected")
		res.ErrKind = ErrKindRejected
		res.Message = err.Error()
		return res
	}

	res.Success = true
	res.FuelSpent = spend
	s.acct.SetFuel(balance - spend)
	s.log.WithFields(logrus.Fields{
		"match": m.ID,
		"side":  side.ID,
		"fuel":  spend,
	}).Info("vote submitted")
	return res
}

// VoteNow performs a single attempt against m outside the Run loop, jitter
// included. Sequential orchestration uses it to walk every account through a
// shared window; earlier accounts' jitter accumulates, so the window is
// re-classified after the delay and before any fuel is committed.
func (s *Scheduler) VoteNow(ctx context.Context, m match.Match) AttemptResult {
	if delay := s.preVoteDelay(); delay > 0 {
		sleepCtx(ctx, delay)
	}
	if match.Classify(m, s.now()).Phase != match.PhaseOpen {
		s.log.WithField("match", m.ID).Info("voting window closed before submission, skipping")
		res := AttemptResult{
			AccountIndex: s.acct.Index,
			FID:          s.acct.FID(),
			MatchID:      m.ID,
			ErrKind:      ErrKindWindowClosed,
			At:           s.now(),
		}
		s.emit(res)
		s.votedOnce = true
		s.lastMatchID = m.ID
		return res
	}

	res := s.voteOnce(ctx, m)
	s.emit(res)
	s.votedOnce = true
	s.lastMatchID = m.ID

	if res.ErrKind == ErrKindInsufficientFuel {
		s.dryStreak++
	} else {
		s.dryStreak = 0
	}
	return res
}

// Retired reports whether consecutive insufficient-fuel attempts have hit the
// configured limit.
func (s *Scheduler) Retired() bool {
	return s.opts.MaxExhaustedCycles > 0 && s.dryStreak >= s.opts.MaxExhaustedCycles
}

// coolDownUntilClose sleeps out the rest of the voting window in bounded
// slices so cancellation stays prompt during long windows.
func (s *Scheduler) coolDownUntilClose(ctx context.Context, m match.Match) error {
	for {
		w := match.Classify(m, s.now())
		if w.Phase != match.PhaseOpen {
			return nil
		}
		if !sleepCtx(ctx, minDuration(w.Remaining, s.opts.Policy.MaxSleepSlice)) {
			return ctx.Err()
		}
	}
}

// seekNextMatch polls for a match whose id differs from the last processed
// one, for up to MaxNextMatchWait. On exhaustion it sleeps the longer
// interval and returns so the caller starts over from Idle.
func (s *Scheduler) seekNextMatch(ctx context.Context) error {
	deadline := s.now().Add(s.opts.Policy.MaxNextMatchWait)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m, err := s.svc.CurrentMatch(ctx, s.acct)
		if err == nil && !m.SameRound(s.lastMatchID) {
			s.log.WithField("match", m.ID).Info("found next match")
			return nil
		}
		if err != nil && !errors.Is(err, ErrNoMatch) {
			s.log.WithError(err).Debug("next-match poll failed")
		}

		if s.now().After(deadline) {
			s.log.WithField("waited", s.opts.Policy.MaxNextMatchWait).Info("no new match yet, taking a longer pause")
			sleepCtx(ctx, s.opts.Policy.ExhaustedSleep)
			return ctx.Err()
		}
		if !sleepCtx(ctx, s.opts.Policy.PollInterval) {
			return ctx.Err()
		}
	}
}

// preVoteDelay returns the jitter to apply before voting. The very first
// vote after startup goes out immediately so a short window is never missed;
// afterwards every vote is delayed by a uniform random duration so repeated
// cycles do not present identical timing.
func (s *Scheduler) preVoteDelay() time.Duration {
	if !s.votedOnce {
		return 0
	}
	span := s.opts.MaxDelay - s.opts.MinDelay
	if span <= 0 {
		return s.opts.MinDelay
	}
	return s.opts.MinDelay + time.Duration(s.rng.Int63n(int64(span)+1))
}

func (s *Scheduler) emit(res AttemptResult) {
	if s.opts.Journal != nil {
		if err := s.opts.Journal.RecordAttempt(res); err != nil {
			s.log.WithError(err).Warn("failed to journal attempt result")
		}
	}
	if s.results != nil {
		s.results <- res
	}
}

// sleepCtx waits for d or until the context is cancelled, whichever comes
// first. Returns false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
