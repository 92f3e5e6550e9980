package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Account operations

// UpsertAccount records an account by token, updating identity and fuel
// bookkeeping if the row already exists
func (db *DB) UpsertAccount(token, teamPreference string, fid int64, username string, fuel int) (*Account, error) {
	now := time.Now()

	err := db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO accounts (token, fid, username, team_preference, fuel_balance, created_at, last_seen_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(token) DO UPDATE SET
				fid = excluded.fid,
				username = excluded.username,
				team_preference = excluded.team_preference,
				fuel_balance = excluded.fuel_balance,
				last_seen_at = excluded.last_seen_at
		`, token, nullableFID(fid), nullableString(username), teamPreference, fuel, now, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return db.GetAccountByToken(token)
}

// GetAccountByToken retrieves an account by its auth token
func (db *DB) GetAccountByToken(token string) (*Account, error) {
	account := &Account{}
	err := db.conn.QueryRow(`
		SELECT
			id, token, fid, username, team_preference,
			fuel_balance, is_retired, created_at, last_seen_at
		FROM accounts
		WHERE token = ?
	`, token).Scan(
		&account.ID, &account.Token, &account.FID, &account.Username,
		&account.TeamPreference, &account.FuelBalance, &account.IsRetired,
		&account.CreatedAt, &account.LastSeenAt,
	)

	if err != nil {
		return nil, err
	}

	return account, nil
}

// ListAccounts returns all known accounts, retired included
func (db *DB) ListAccounts() ([]*Account, error) {
	rows, err := db.conn.Query(`
		SELECT
			id, token, fid, username, team_preference,
			fuel_balance, is_retired, created_at, last_seen_at
		FROM accounts
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		account := &Account{}
		err := rows.Scan(
			&account.ID, &account.Token, &account.FID, &account.Username,
			&account.TeamPreference, &account.FuelBalance, &account.IsRetired,
			&account.CreatedAt, &account.LastSeenAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// SetAccountRetired flags or unflags an account as retired
func (db *DB) SetAccountRetired(token string, retired bool) error {
	result, err := db.conn.Exec(`
		UPDATE accounts SET is_retired = ? WHERE token = ?
	`, retired, token)
	if err != nil {
		return fmt.Errorf("failed to update retirement flag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateAccountFuel records the last observed fuel balance
func (db *DB) UpdateAccountFuel(token string, fuel int) error {
	_, err := db.conn.Exec(`
		UPDATE accounts SET fuel_balance = ?, last_seen_at = ? WHERE token = ?
	`, fuel, time.Now(), token)
	return err
}

func nullableFID(fid int64) interface{} {
	if fid == 0 {
		return nil
	}
	return fid
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
