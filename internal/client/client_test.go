package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"versusbot.dev/wreck-league-go/internal/accounts"
	"versusbot.dev/wreck-league-go/internal/vote"
)

type fakeAPI struct {
	mu         sync.Mutex
	mux        *http.ServeMux
	registered bool
	fuel       int
	matchJSON  string
	lastVote   map[string]interface{}
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client, *accounts.Account) {
	t.Helper()
	api := &fakeAPI{mux: http.NewServeMux(), fuel: 5, registered: true}

	api.mux.HandleFunc("/v2/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer MK-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"result":{"user":{"fid":777,"username":"pilot","displayName":"Pilot","pfp":{"url":"https://img/p.png"}}}}`))
	})

	api.mux.HandleFunc("/v1/match/details", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		w.Write([]byte(api.matchJSON))
	})

	api.mux.HandleFunc("/v1/user/data", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		if !api.registered {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"user not found"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"fuelBalance": api.fuel, "canClaimFuel": false},
		})
	})

	api.mux.HandleFunc("/v1/user/add", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.registered = true
		api.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})

	api.mux.HandleFunc("/v1/user/notification", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	api.mux.HandleFunc("/v1/user/fuelReward", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"fuel":2}}`))
	})

	api.mux.HandleFunc("/v2/matches/predict", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		api.mu.Lock()
		api.lastVote = body
		api.mu.Unlock()
		w.Write([]byte(`{"data":{}}`))
	})

	srv := httptest.NewServer(api.mux)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	c := New(srv.URL, srv.URL, 2*time.Second, log.WithField("component", "client"))
	return api, c, accounts.New(1, "MK-test")
}

const openMatchJSON = `{"data":{"matchData":[{
	"_id":"match-1",
	"votingStartTime":"2025-06-01T12:00:00Z",
	"votingEndTime":"2025-06-01T13:00:00Z",
	"mechDetails":[
		{"mechId":"mech-a","winningProbability":40,"mechVotes":{"voteCount":10,"fuelPoints":30},"userData":{"displayName":"Alice"}},
		{"mechId":"mech-b","winningProbability":65,"mechVotes":{"voteCount":5,"fuelPoints":12},"userData":{"displayName":"Bob"}}
	]
}]}}`

func TestResolveIdentity(t *testing.T) {
	_, c, acct := newFakeAPI(t)

	if err := c.ResolveIdentity(context.Background(), acct); err != nil {
		t.Fatalf("Failed to resolve identity: %v", err)
	}
	if acct.FID() != 777 || acct.Username() != "pilot" {
		t.Errorf("Unexpected identity: fid=%d user=%q", acct.FID(), acct.Username())
	}
}

func TestCurrentMatch(t *testing.T) {
	api, c, acct := newFakeAPI(t)
	api.matchJSON = openMatchJSON

	m, err := c.CurrentMatch(context.Background(), acct)
	if err != nil {
		t.Fatalf("Failed to fetch match: %v", err)
	}

	if m.ID != "match-1" {
		t.Errorf("Expected match-1, got %q", m.ID)
	}
	if m.VotingStart == nil || m.VotingEnd == nil {
		t.Fatal("Window timestamps not parsed")
	}
	if got := m.VotingEnd.Sub(*m.VotingStart); got != time.Hour {
		t.Errorf("Expected 1h window, got %v", got)
	}
	if len(m.Sides) != 2 {
		t.Fatalf("Expected 2 sides, got %d", len(m.Sides))
	}
	if m.Sides[1].ID != "mech-b" || m.Sides[1].Position != 1 || m.Sides[1].WinProbability != 65 {
		t.Errorf("Side not mapped: %+v", m.Sides[1])
	}
	if m.Sides[0].OwnerName != "Alice" {
		t.Errorf("Owner name not mapped: %q", m.Sides[0].OwnerName)
	}
}

func TestCurrentMatchNone(t *testing.T) {
	api, c, acct := newFakeAPI(t)
	api.matchJSON = `{"data":{"matchData":[]}}`

	_, err := c.CurrentMatch(context.Background(), acct)
	if !errors.Is(err, vote.ErrNoMatch) {
		t.Errorf("Expected ErrNoMatch, got %v", err)
	}
}

func TestCurrentMatchFallsBackToEndTime(t *testing.T) {
	api, c, acct := newFakeAPI(t)
	api.matchJSON = `{"data":{"matchData":[{
		"_id":"match-2",
		"votingStartTime":"2025-06-01T12:00:00Z",
		"endTime":"2025-06-01T12:30:00Z",
		"mechIds":["a","b"]
	}]}}`

	m, err := c.CurrentMatch(context.Background(), acct)
	if err != nil {
		t.Fatalf("Failed to fetch match: %v", err)
	}
	if m.VotingEnd == nil {
		t.Fatal("Expected endTime fallback for missing votingEndTime")
	}
	if len(m.Sides) != 2 || m.Sides[0].ID != "a" {
		t.Errorf("Expected mechIds fallback sides, got %+v", m.Sides)
	}
}

func TestFuelBalance(t *testing.T) {
	api, c, acct := newFakeAPI(t)
	api.fuel = 9

	balance, err := c.FuelBalance(context.Background(), acct)
	if err != nil {
		t.Fatalf("Failed to fetch fuel: %v", err)
	}
	if balance != 9 {
		t.Errorf("Expected balance 9, got %d", balance)
	}
}

func TestFuelBalanceFailsClosed(t *testing.T) {
	// A response shaped differently from the declared schema must read as
	// zero fuel, not be probed for alternative key paths.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/me" {
			w.Write([]byte(`{"result":{"user":{"fid":777,"username":"pilot"}}}`))
			return
		}
		w.Write([]byte(`{"data":{"user":{"fuel":42}}}`))
	}))
	defer srv.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	c := New(srv.URL, srv.URL, 2*time.Second, log.WithField("component", "client"))

	balance, err := c.FuelBalance(context.Background(), accounts.New(1, "MK-test"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if balance != 0 {
		t.Errorf("Undeclared schema should fail closed to 0, got %d", balance)
	}
}

func TestFuelBalanceRegistersOn404(t *testing.T) {
	api, c, acct := newFakeAPI(t)
	api.mu.Lock()
	api.registered = false
	api.fuel = 3
	api.mu.Unlock()

	balance, err := c.FuelBalance(context.Background(), acct)
	if err != nil {
		t.Fatalf("Failed to fetch fuel after registration: %v", err)
	}
	if balance != 3 {
		t.Errorf("Expected balance 3 after auto-registration, got %d", balance)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.registered {
		t.Error("Client should have registered the account")
	}
}

func TestClaimFuelReward(t *testing.T) {
	_, c, acct := newFakeAPI(t)

	granted, err := c.ClaimFuelReward(context.Background(), acct)
	if err != nil {
		t.Fatalf("Failed to claim reward: %v", err)
	}
	if granted != 2 {
		t.Errorf("Expected 2 fuel granted, got %d", granted)
	}
}

func TestSubmitVote(t *testing.T) {
	api, c, acct := newFakeAPI(t)

	if err := c.SubmitVote(context.Background(), acct, "match-1", "mech-b", 4); err != nil {
		t.Fatalf("Failed to submit vote: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.lastVote["mechId"] != "mech-b" || api.lastVote["matchId"] != "match-1" {
		t.Errorf("Unexpected vote body: %+v", api.lastVote)
	}
	if api.lastVote["fuelPoints"].(float64) != 4 {
		t.Errorf("Expected 4 fuel points, got %v", api.lastVote["fuelPoints"])
	}
	if api.lastVote["fId"].(float64) != 777 {
		t.Errorf("Expected fid 777, got %v", api.lastVote["fId"])
	}
}

func TestSubmitVoteRejectsZeroFuel(t *testing.T) {
	_, c, acct := newFakeAPI(t)
	if err := c.SubmitVote(context.Background(), acct, "match-1", "mech-b", 0); err == nil {
		t.Error("Expected error for zero fuel points")
	}
}

func TestRemoteErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/me" {
			w.Write([]byte(`{"result":{"user":{"fid":777,"username":"pilot"}}}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"voting window closed"}`))
	}))
	defer srv.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	c := New(srv.URL, srv.URL, 2*time.Second, log.WithField("component", "client"))

	err := c.SubmitVote(context.Background(), accounts.New(1, "MK-test"), "m", "s", 1)
	if err == nil {
		t.Fatal("Expected error from 400 response")
	}
	var se *statusError
	if !errors.As(err, &se) || se.message != "voting window closed" {
		t.Errorf("Expected remote message in error, got %v", err)
	}
}
