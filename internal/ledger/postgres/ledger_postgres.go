package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"shiptrack/internal/ledger"
)

// LedgerPostgres implements ledger.Gateway over an append-only
// PostgreSQL table. Rows are only ever inserted; there is no update or
// delete path. An optional broadcaster mirrors each accepted
// transaction; broadcast failures do not fail the transaction, the
// stored row is authoritative.
type LedgerPostgres struct {
	db        *sql.DB
	broadcast ledger.Broadcaster
	connected atomic.Bool
}

// NewLedgerPostgres creates a gateway over db. broadcast may be nil.
func NewLedgerPostgres(db *sql.DB, broadcast ledger.Broadcaster) *LedgerPostgres {
	return &LedgerPostgres{db: db, broadcast: broadcast}
}

var _ ledger.Gateway = (*LedgerPostgres)(nil)

// Connect verifies the backend is reachable and opens the session.
func (l *LedgerPostgres) Connect(ctx context.Context) error {
	if err := l.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ledger ping: %w", err)
	}
	l.connected.Store(true)
	return nil
}

// SendTransaction appends one transaction row under key.
func (l *LedgerPostgres) SendTransaction(ctx context.Context, key, payload string) error {
	if !l.connected.Load() {
		return ledger.ErrNotConnected
	}
	const q = `
		INSERT INTO ledger_transactions (key, payload, created_at)
		VALUES ($1, $2, $3)
	`
	if _, err := l.db.ExecContext(ctx, q, key, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("ledger insert: %w", err)
	}
	if l.broadcast != nil {
		// Best-effort mirror; the row above is the record.
		_ = l.broadcast.Broadcast(ctx, key, payload)
	}
	return nil
}

// QueryLedger returns all payloads stored under key, oldest first.
func (l *LedgerPostgres) QueryLedger(ctx context.Context, key string) ([]string, error) {
	if !l.connected.Load() {
		return nil, ledger.ErrNotConnected
	}
	const q = `
		SELECT payload
		FROM ledger_transactions
		WHERE key = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := l.db.QueryContext(ctx, q, key)
	if err != nil {
		return nil, fmt.Errorf("ledger query: %w", err)
	}
	defer rows.Close()

	var payloads []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		payloads = append(payloads, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payloads, nil
}

// Disconnect closes the session flag. The *sql.DB pool itself is owned
// by the caller and stays open.
func (l *LedgerPostgres) Disconnect() {
	l.connected.Store(false)
}
