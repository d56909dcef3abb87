package database

import "context"

// TxManager runs a unit of work atomically. The transaction travels in the
// context handed to fn, so repositories called with that context join it.
// Calls nested inside an active unit of work reuse the outer transaction.
type TxManager interface {
	// WithinTx runs fn in a read-committed transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// WithinSnapshot runs fn in a repeatable-read transaction so every read
	// observes the same snapshot.
	WithinSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}
