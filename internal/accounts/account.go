package accounts

import (
	"sync"

	"versusbot.dev/wreck-league-go/internal/match"
)

// Account is one credential the bot votes with. It is constructed once at
// startup; identity resolution happens lazily on first use and the fuel
// balance is only a last-observed value - it is refreshed immediately before
// every vote attempt and never trusted across a sleep boundary.
type Account struct {
	mu sync.Mutex

	// Index is the local ordinal used in logs and summaries.
	Index int
	// Token is the opaque bearer credential.
	Token string
	// Preference overrides the global team preference when set.
	Preference match.Preference

	fid      int64
	username string
	fuel     int
}

// New returns an account for a credential with the auto side preference.
func New(index int, token string) *Account {
	return &Account{Index: index, Token: token, Preference: match.PreferenceAuto}
}

// FID returns the resolved remote user id, or 0 when not yet resolved.
func (a *Account) FID() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fid
}

// Username returns the resolved remote username, if known.
func (a *Account) Username() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.username
}

// Resolved reports whether the remote identity has been looked up.
func (a *Account) Resolved() bool {
	return a.FID() != 0
}

// SetIdentity records the resolved remote identity.
func (a *Account) SetIdentity(fid int64, username string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fid = fid
	a.username = username
}

// Fuel returns the last observed fuel balance. May be stale.
func (a *Account) Fuel() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fuel
}

// SetFuel records a freshly observed fuel balance.
func (a *Account) SetFuel(fuel int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fuel = fuel
}
