// Package coordinator fans the per-account vote schedulers out across all
// loaded accounts and aggregates their results.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"versusbot.dev/wreck-league-go/internal/accounts"
	"versusbot.dev/wreck-league-go/internal/bot"
	"versusbot.dev/wreck-league-go/internal/match"
	"versusbot.dev/wreck-league-go/internal/vote"
)

// ErrAllRetired signals that every account hit the fuel exhaustion limit and
// there is nothing left to run.
var ErrAllRetired = errors.New("all accounts retired")

// Summary aggregates attempt results across all accounts for the lifetime of
// a Run. It lives in memory only.
type Summary struct {
	Attempts  int
	Successes int
	FuelSpent int
	Retired   int
	Failures  map[vote.ErrKind]int
}

// pilot pairs an account with its scheduler options. Schedulers themselves
// are built per run so each mode wires results its own way.
type pilot struct {
	acct *accounts.Account
	opts vote.Options
}

// Orchestrator owns the full fleet of accounts. Concurrent mode gives every
// account an independent scheduler goroutine; sequential mode drives all
// accounts through one shared match cycle.
type Orchestrator struct {
	cfg     *bot.Config
	svc     vote.Service
	journal vote.Recorder
	log     *logrus.Entry

	mu      sync.Mutex
	summary Summary
	retired []*accounts.Account
	pilots  []pilot
}

// New builds an orchestrator over the given accounts. journal may be nil.
func New(cfg *bot.Config, svc vote.Service, accts []*accounts.Account, journal vote.Recorder, log *logrus.Entry) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		svc:     svc,
		journal: journal,
		log:     log,
	}
	o.summary.Failures = make(map[vote.ErrKind]int)

	// Per-account seeds keep pre-vote jitter decorrelated across the fleet.
	baseSeed := time.Now().UnixNano()
	for i, acct := range accts {
		opts := vote.Options{
			Strategy:           cfg.Strategy,
			Preference:         cfg.Team,
			MinDelay:           cfg.MinDelay,
			MaxDelay:           cfg.MaxDelay,
			Policy:             cfg.Policy(),
			Seed:               baseSeed + int64(i)*7919,
			MaxExhaustedCycles: cfg.MaxExhaustedCycles,
			Journal:            journal,
		}
		o.pilots = append(o.pilots, pilot{acct: acct, opts: opts})
	}
	return o
}

// Run drives all accounts until the context is cancelled or every account
// retires. The execution mode comes from configuration.
func (o *Orchestrator) Run(ctx context.Context) error {
	if len(o.pilots) == 0 {
		return errors.New("no accounts to run")
	}

	o.log.WithFields(logrus.Fields{
		"accounts": len(o.pilots),
		"mode":     o.cfg.Mode.String(),
	}).Info("starting orchestrator")

	var err error
	if o.cfg.Mode == bot.ModeSequential {
		err = o.runSequential(ctx)
	} else {
		err = o.runConcurrent(ctx)
	}

	s := o.Summary()
	o.log.WithFields(logrus.Fields{
		"attempts":   s.Attempts,
		"successes":  s.Successes,
		"fuel_spent": s.FuelSpent,
		"retired":    s.Retired,
	}).Info("orchestrator stopped")
	return err
}

// Summary returns a copy of the aggregated results so far.
func (o *Orchestrator) Summary() Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := o.summary
	out.Failures = make(map[vote.ErrKind]int, len(o.summary.Failures))
	for k, v := range o.summary.Failures {
		out.Failures[k] = v
	}
	return out
}

// runConcurrent launches one scheduler goroutine per account. Results flow
// back over a channel so aggregation never races the schedulers.
func (o *Orchestrator) runConcurrent(ctx context.Context) error {
	results := make(chan vote.AttemptResult, len(o.pilots))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			o.record(res)
		}
	}()

	var wg sync.WaitGroup
	for _, p := range o.pilots {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched := vote.NewScheduler(o.svc, p.acct, p.opts, results, o.log.WithField("account", p.acct.Index))
			if err := sched.Run(ctx); errors.Is(err, vote.ErrFuelExhausted) {
				o.markRetired(p.acct)
			}
		}()
	}
	wg.Wait()
	close(results)
	<-done

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return ErrAllRetired
}

// runSequential drives one shared cycle: resolve identities, wait for the
// window to open, then vote every active account in turn before cooling down
// and seeking the next match.
func (o *Orchestrator) runSequential(ctx context.Context) error {
	policy := o.cfg.Policy()
	lastMatchID := ""

	type seqPilot struct {
		acct  *accounts.Account
		sched *vote.Scheduler
	}
	fleet := make([]seqPilot, 0, len(o.pilots))
	for _, p := range o.pilots {
		fleet = append(fleet, seqPilot{
			acct:  p.acct,
			sched: vote.NewScheduler(o.svc, p.acct, p.opts, nil, o.log.WithField("account", p.acct.Index)),
		})
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var active []seqPilot
		for _, p := range fleet {
			if !p.sched.Retired() {
				active = append(active, p)
			}
		}
		if len(active) == 0 {
			return ErrAllRetired
		}

		for _, p := range active {
			if err := o.resolveIdentity(ctx, p.acct); err != nil {
				return err
			}
		}

		probe := active[0].acct
		m, err := o.svc.CurrentMatch(ctx, probe)
		if err != nil {
			if errors.Is(err, vote.ErrNoMatch) {
				o.log.Debug("no active match, polling")
				if !sleepCtx(ctx, policy.PollInterval) {
					return ctx.Err()
				}
				continue
			}
			o.log.WithError(err).Warn("match fetch failed, backing off")
			if !sleepCtx(ctx, policy.RetryInterval) {
				return ctx.Err()
			}
			continue
		}

		m, open, err := o.awaitOpen(ctx, probe, m, policy)
		if err != nil {
			return err
		}
		if !open {
			lastMatchID = m.ID
			if err := o.seekNext(ctx, probe, lastMatchID, policy); err != nil {
				return err
			}
			continue
		}

		o.log.WithFields(logrus.Fields{"match": m.ID, "accounts": len(active)}).Info("voting window open, walking accounts")
		passStart := o.Summary()
		for _, p := range active {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res := p.sched.VoteNow(ctx, m)
			o.record(res)
			if p.sched.Retired() {
				o.markRetired(p.acct)
				o.log.WithField("account", p.acct.Index).Warn("retiring account: fuel exhausted across consecutive cycles")
			}
		}
		lastMatchID = m.ID

		fuelLeft := 0
		for _, p := range active {
			fuelLeft += p.acct.Fuel()
		}
		o.logPassSummary(m.ID, passStart, fuelLeft)

		remaining := 0
		for _, p := range active {
			if !p.sched.Retired() {
				remaining++
			}
		}
		if remaining == 0 {
			return ErrAllRetired
		}

		if err := o.coolDown(ctx, m, policy); err != nil {
			return err
		}
		if err := o.seekNext(ctx, probe, lastMatchID, policy); err != nil {
			return err
		}
	}
}

// awaitOpen blocks until m's window opens or conclusively closes. It
// re-fetches across sleeps so a replaced match is noticed. The returned match
// is the one whose window state was last observed.
func (o *Orchestrator) awaitOpen(ctx context.Context, probe *accounts.Account, m match.Match, policy vote.Policy) (match.Match, bool, error) {
	for {
		if ctx.Err() != nil {
			return m, false, ctx.Err()
		}

		w := match.Classify(m, time.Now().UTC())
		switch w.Phase {
		case match.PhaseOpen:
			return m, true, nil
		case match.PhaseClosed:
			return m, false, nil
		case match.PhasePending:
			o.log.WithField("starts_in", w.Wait.Round(time.Second)).Debug("voting window pending")
			if !sleepCtx(ctx, minDuration(w.Wait, policy.MaxSleepSlice)) {
				return m, false, ctx.Err()
			}
		default:
			if !sleepCtx(ctx, policy.RetryInterval) {
				return m, false, ctx.Err()
			}
		}

		refreshed, err := o.svc.CurrentMatch(ctx, probe)
		if err != nil {
			if errors.Is(err, vote.ErrNoMatch) {
				return m, false, nil
			}
			o.log.WithError(err).Debug("match refresh failed")
			continue
		}
		m = refreshed
	}
}

// coolDown sleeps out the remainder of the open window in bounded slices.
func (o *Orchestrator) coolDown(ctx context.Context, m match.Match, policy vote.Policy) error {
	for {
		w := match.Classify(m, time.Now().UTC())
		if w.Phase != match.PhaseOpen {
			return nil
		}
		if !sleepCtx(ctx, minDuration(w.Remaining, policy.MaxSleepSlice)) {
			return ctx.Err()
		}
	}
}

// seekNext polls for a match with a different id, bounded by
// MaxNextMatchWait, then takes the longer pause on exhaustion.
func (o *Orchestrator) seekNext(ctx context.Context, probe *accounts.Account, lastID string, policy vote.Policy) error {
	deadline := time.Now().Add(policy.MaxNextMatchWait)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m, err := o.svc.CurrentMatch(ctx, probe)
		if err == nil && !m.SameRound(lastID) {
			o.log.WithField("match", m.ID).Info("found next match")
			return nil
		}
		if err != nil && !errors.Is(err, vote.ErrNoMatch) {
			o.log.WithError(err).Debug("next-match poll failed")
		}

		if time.Now().After(deadline) {
			o.log.WithField("waited", policy.MaxNextMatchWait).Info("no new match yet, taking a longer pause")
			sleepCtx(ctx, policy.ExhaustedSleep)
			return ctx.Err()
		}
		if !sleepCtx(ctx, policy.PollInterval) {
			return ctx.Err()
		}
	}
}

// resolveIdentity is best effort; a failed lookup is retried on the next
// cycle rather than taking the fleet down.
func (o *Orchestrator) resolveIdentity(ctx context.Context, acct *accounts.Account) error {
	if acct.Resolved() {
		return nil
	}
	if err := o.svc.ResolveIdentity(ctx, acct); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.log.WithError(err).WithField("account", acct.Index).Warn("identity resolution failed")
		return nil
	}
	o.log.WithFields(logrus.Fields{
		"account":  acct.Index,
		"fid":      acct.FID(),
		"username": acct.Username(),
	}).Info("resolved account identity")
	return nil
}

func (o *Orchestrator) record(res vote.AttemptResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.summary.Attempts++
	if res.Success {
		o.summary.Successes++
		o.summary.FuelSpent += res.FuelSpent
	} else if res.ErrKind != vote.ErrKindNone {
		o.summary.Failures[res.ErrKind]++
	}
}

// logPassSummary reports the outcome of one full pass over the accounts:
// the delta since the pass began plus the fleet's remaining fuel.
func (o *Orchestrator) logPassSummary(matchID string, before Summary, fuelLeft int) {
	after := o.Summary()
	o.log.WithFields(logrus.Fields{
		"match":          matchID,
		"successes":      after.Successes - before.Successes,
		"failures":       (after.Attempts - after.Successes) - (before.Attempts - before.Successes),
		"fuel_remaining": fuelLeft,
	}).Info("cycle complete")
}

func (o *Orchestrator) markRetired(acct *accounts.Account) {
	o.mu.Lock()
	o.summary.Retired++
	o.retired = append(o.retired, acct)
	o.mu.Unlock()
}

// RetiredAccounts returns the accounts that hit the fuel exhaustion limit
// during this run.
func (o *Orchestrator) RetiredAccounts() []*accounts.Account {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*accounts.Account, len(o.retired))
	copy(out, o.retired)
	return out
}

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
