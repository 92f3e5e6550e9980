package database

import (
	"fmt"

	"versusbot.dev/wreck-league-go/internal/vote"
)

// Journal persists attempt results. It satisfies vote.Recorder; the single
// SQLite connection serializes writes from concurrent schedulers.
type Journal struct {
	db *DB
}

// NewJournal wraps db as a vote journal
func NewJournal(db *DB) *Journal {
	return &Journal{db: db}
}

var _ vote.Recorder = (*Journal)(nil)

// RecordAttempt appends one attempt result to the journal
func (j *Journal) RecordAttempt(r vote.AttemptResult) error {
	_, err := j.db.conn.Exec(`
		INSERT INTO vote_journal (
			account_index, fid, match_id, side_id,
			success, fuel_spent, err_kind, message, attempted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.AccountIndex, r.FID, r.MatchID, nullableString(r.SideID),
		r.Success, r.FuelSpent, string(r.ErrKind), nullableString(r.Message), r.At)

	if err != nil {
		return fmt.Errorf("failed to journal vote attempt: %w", err)
	}
	return nil
}

// RecentAttempts returns the newest journal entries, most recent first
func (db *DB) RecentAttempts(limit int) ([]*VoteAttempt, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.Query(`
		SELECT
			id, account_index, fid, match_id, side_id,
			success, fuel_spent, err_kind, message, attempted_at
		FROM vote_journal
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*VoteAttempt
	for rows.Next() {
		a := &VoteAttempt{}
		err := rows.Scan(
			&a.ID, &a.AccountIndex, &a.FID, &a.MatchID, &a.SideID,
			&a.Success, &a.FuelSpent, &a.ErrKind, &a.Message, &a.AttemptedAt,
		)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// MatchTotals summarizes journaled activity for one match
type MatchTotals struct {
	Attempts  int
	Successes int
	FuelSpent int
}

// TotalsForMatch aggregates journal entries for the given match id
func (db *DB) TotalsForMatch(matchID string) (*MatchTotals, error) {
	totals := &MatchTotals{}
	err := db.conn.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN success THEN fuel_spent ELSE 0 END), 0)
		FROM vote_journal
		WHERE match_id = ?
	`, matchID).Scan(&totals.Attempts, &totals.Successes, &totals.FuelSpent)

	if err != nil {
		return nil, err
	}
	return totals, nil
}
