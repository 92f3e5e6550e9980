package database

import (
	"time"
)

// Account is the persisted bookkeeping row for one Farcaster account
type Account struct {
	ID             int        `db:"id"`
	Token          string     `db:"token"`
	FID            *int64     `db:"fid"`
	Username       *string    `db:"username"`
	TeamPreference string     `db:"team_preference"`
	FuelBalance    int        `db:"fuel_balance"`
	IsRetired      bool       `db:"is_retired"`
	CreatedAt      time.Time  `db:"created_at"`
	LastSeenAt     *time.Time `db:"last_seen_at"`
}

// VoteAttempt is one journaled scheduling cycle outcome
type VoteAttempt struct {
	ID           int       `db:"id"`
	AccountIndex int       `db:"account_index"`
	FID          int64     `db:"fid"`
	MatchID      string    `db:"match_id"`
	SideID       *string   `db:"side_id"`
	Success      bool      `db:"success"`
	FuelSpent    int       `db:"fuel_spent"`
	ErrKind      string    `db:"err_kind"`
	Message      *string   `db:"message"`
	AttemptedAt  time.Time `db:"attempted_at"`
}
