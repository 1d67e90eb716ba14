package ledger

import (
	"context"
	"errors"
)

// Package ledger defines the gateway contract the core uses to talk to
// the external append-only transaction store. The core never depends
// on ledger response content, only on success or failure of each call.

var (
	// ErrNotConnected is returned by operations invoked before Connect
	// or after Disconnect.
	ErrNotConnected = errors.New("ledger gateway is not connected")
)

// Gateway is the indirection layer between the services and whatever
// backs the ledger. Implementations own their timeout and retry
// policy and report success or failure synchronously.
type Gateway interface {
	// Connect establishes the session with the ledger backend.
	Connect(ctx context.Context) error

	// SendTransaction appends a transaction under the given key. It
	// fails with ErrNotConnected when no session is open.
	SendTransaction(ctx context.Context, key, payload string) error

	// QueryLedger returns the payloads recorded under key, oldest
	// first. It fails with ErrNotConnected when no session is open.
	QueryLedger(ctx context.Context, key string) ([]string, error)

	// Disconnect closes the session. Safe to call when not connected.
	Disconnect()
}

// Broadcaster mirrors accepted transactions to interested listeners
// (e.g. a message topic the audit tail consumes). Broadcasting is
// best-effort relative to the stored transaction.
type Broadcaster interface {
	Broadcast(ctx context.Context, key, payload string) error
	Close() error
}
