package coordinator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"versusbot.dev/wreck-league-go/internal/accounts"
	"versusbot.dev/wreck-league-go/internal/bot"
	"versusbot.dev/wreck-league-go/internal/match"
	"versusbot.dev/wreck-league-go/internal/vote"
)

type recordedVote struct {
	index   int
	matchID string
	sideID  string
	fuel    int
}

type fakeService struct {
	mu    sync.Mutex
	match match.Match
	fuel  int
	votes []recordedVote
}

func (f *fakeService) ResolveIdentity(_ context.Context, acct *accounts.Account) error {
	acct.SetIdentity(int64(1000+acct.Index), fmt.Sprintf("pilot%d", acct.Index))
	return nil
}

func (f *fakeService) CurrentMatch(_ context.Context, _ *accounts.Account) (match.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.match.ID == "" {
		return match.Match{}, vote.ErrNoMatch
	}
	return f.match, nil
}

func (f *fakeService) FuelBalance(_ context.Context, _ *accounts.Account) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fuel, nil
}

func (f *fakeService) ClaimFuelReward(_ context.Context, _ *accounts.Account) (int, error) {
	return 0, nil
}

func (f *fakeService) SubmitVote(_ context.Context, acct *accounts.Account, matchID, sideID string, fuelPoints int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes = append(f.votes, recordedVote{index: acct.Index, matchID: matchID, sideID: sideID, fuel: fuelPoints})
	return nil
}

func (f *fakeService) voteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.votes)
}

func openMatch(id string, window time.Duration) match.Match {
	start := time.Now().UTC().Add(-time.Second)
	end := time.Now().UTC().Add(window)
	return match.Match{
		ID:          id,
		VotingStart: &start,
		VotingEnd:   &end,
		Sides: []match.Side{
			{ID: "mech-a", Position: 0, WinProbability: 40},
			{ID: "mech-b", Position: 1, WinProbability: 60},
		},
	}
}

func testConfig(mode bot.ExecutionMode) *bot.Config {
	return &bot.Config{
		Team:             match.PreferenceAuto,
		Strategy:         vote.Max(1),
		MinFuelThreshold: 1,
		Mode:             mode,
		MaxNextMatchWait: 50 * time.Millisecond,
		RetryInterval:    10 * time.Millisecond,
		PollInterval:     10 * time.Millisecond,
		ExhaustedSleep:   20 * time.Millisecond,
		MaxSleepSlice:    20 * time.Millisecond,
	}
}

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log.WithField("component", "test")
}

func waitForVotes(t *testing.T, svc *fakeService, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for svc.voteCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %d votes, got %d", n, svc.voteCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConcurrentVotesAllAccounts(t *testing.T) {
	svc := &fakeService{match: openMatch("m1", time.Minute), fuel: 5}
	accts := []*accounts.Account{
		accounts.New(1, "MK-a"),
		accounts.New(2, "MK-b"),
	}
	o := New(testConfig(bot.ModeConcurrent), svc, accts, nil, testLog())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- o.Run(ctx) }()

	waitForVotes(t, svc, 2)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	s := o.Summary()
	if s.Successes != 2 || s.FuelSpent != 10 {
		t.Errorf("Unexpected summary: %+v", s)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	seen := map[int]bool{}
	for _, v := range svc.votes[:2] {
		seen[v.index] = true
		if v.sideID != "mech-b" {
			t.Errorf("Expected higher-probability side mech-b, got %q", v.sideID)
		}
	}
	if !seen[1] || !seen[2] {
		t.Errorf("Expected one vote per account, got %+v", svc.votes)
	}
}

func TestSequentialWalksAccountsInOrder(t *testing.T) {
	svc := &fakeService{match: openMatch("m1", time.Minute), fuel: 3}
	accts := []*accounts.Account{
		accounts.New(1, "MK-a"),
		accounts.New(2, "MK-b"),
		accounts.New(3, "MK-c"),
	}
	o := New(testConfig(bot.ModeSequential), svc, accts, nil, testLog())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- o.Run(ctx) }()

	waitForVotes(t, svc, 3)
	cancel()
	<-errCh

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for i, v := range svc.votes[:3] {
		if v.index != i+1 {
			t.Errorf("Expected account %d at position %d, got %d", i+1, i, v.index)
		}
	}
}

func TestSequentialReportsCycleSummary(t *testing.T) {
	svc := &fakeService{match: openMatch("m1", time.Minute), fuel: 4}
	accts := []*accounts.Account{
		accounts.New(1, "MK-a"),
		accounts.New(2, "MK-b"),
	}
	logger, hook := logtest.NewNullLogger()
	o := New(testConfig(bot.ModeSequential), svc, accts, nil, logger.WithField("component", "coordinator"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- o.Run(ctx) }()

	waitForVotes(t, svc, 2)

	var summary *logrus.Entry
	deadline := time.Now().Add(2 * time.Second)
	for summary == nil {
		for _, e := range hook.AllEntries() {
			if e.Message == "cycle complete" {
				summary = e
				break
			}
		}
		if summary == nil && time.Now().After(deadline) {
			t.Fatal("No cycle summary logged after the account walk")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh

	if summary.Data["successes"] != 2 {
		t.Errorf("Expected 2 successes in cycle summary, got %v", summary.Data["successes"])
	}
	if summary.Data["failures"] != 0 {
		t.Errorf("Expected 0 failures in cycle summary, got %v", summary.Data["failures"])
	}
	// Max strategy drains each account's balance of 4
	if summary.Data["fuel_remaining"] != 0 {
		t.Errorf("Expected drained fleet fuel, got %v", summary.Data["fuel_remaining"])
	}
	if summary.Data["match"] != "m1" {
		t.Errorf("Summary should name the match, got %v", summary.Data["match"])
	}
}

func TestAllAccountsRetire(t *testing.T) {
	svc := &fakeService{match: openMatch("m1", time.Minute), fuel: 0}
	cfg := testConfig(bot.ModeConcurrent)
	cfg.Strategy = vote.Conservative(3)
	cfg.MaxExhaustedCycles = 1

	accts := []*accounts.Account{
		accounts.New(1, "MK-a"),
		accounts.New(2, "MK-b"),
	}
	o := New(cfg, svc, accts, nil, testLog())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := o.Run(ctx)
	if err != ErrAllRetired {
		t.Fatalf("Expected ErrAllRetired, got %v", err)
	}

	s := o.Summary()
	if s.Retired != 2 {
		t.Errorf("Expected 2 retired accounts, got %d", s.Retired)
	}
	if s.Failures[vote.ErrKindInsufficientFuel] != 2 {
		t.Errorf("Expected 2 insufficient-fuel failures, got %+v", s.Failures)
	}

	retired := o.RetiredAccounts()
	if len(retired) != 2 {
		t.Fatalf("Expected 2 accounts in retired list, got %d", len(retired))
	}
	seen := map[int]bool{}
	for _, a := range retired {
		seen[a.Index] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("Retired list should name both accounts, got %+v", retired)
	}
}

func TestSequentialAllRetire(t *testing.T) {
	svc := &fakeService{match: openMatch("m1", time.Minute), fuel: 0}
	cfg := testConfig(bot.ModeSequential)
	cfg.Strategy = vote.Conservative(3)
	cfg.MaxExhaustedCycles = 1

	o := New(cfg, svc, []*accounts.Account{accounts.New(1, "MK-a")}, nil, testLog())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := o.Run(ctx)
	if err != ErrAllRetired {
		t.Fatalf("Expected ErrAllRetired, got %v", err)
	}
}

func TestRunWithoutAccounts(t *testing.T) {
	o := New(testConfig(bot.ModeConcurrent), &fakeService{}, nil, nil, testLog())
	if err := o.Run(context.Background()); err == nil {
		t.Error("Expected error with no accounts")
	}
}
