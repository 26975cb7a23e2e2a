// Package store defines the record-store contract the pipeline and the
// stats engine depend on, with a sqlite implementation for production and a
// memory implementation for tests. The core never depends on the physical
// schema beyond these operations.
package store

import (
	"context"

	"github.com/lox/pokerhud/internal/entity"
)

// TxMode selects the transaction mode for WithTx.
type TxMode int

const (
	// ReadOnly allows concurrent readers.
	ReadOnly TxMode = iota
	// ReadWrite is exclusive over the store's tables.
	ReadWrite
)

// Store is the record store contract: upserts, indexed queries and a
// transaction wrapper. Implementations must make WithTx(ReadWrite, ...)
// atomic across all three entity tables.
type Store interface {
	// PutHand upserts a single hand.
	PutHand(ctx context.Context, hand *entity.Hand) error
	// PutHands bulk-upserts hands.
	PutHands(ctx context.Context, hands []entity.Hand) error
	// PutPhases bulk-upserts phase records.
	PutPhases(ctx context.Context, phases []entity.PhaseRecord) error
	// PutActions bulk-upserts actions.
	PutActions(ctx context.Context, actions []entity.Action) error

	// HandsByPlayer returns every hand the player was seated in,
	// ascending by hand id.
	HandsByPlayer(ctx context.Context, playerID int64) ([]entity.Hand, error)
	// HandsBetween returns hands with timestamps in [from, to],
	// ascending by hand id.
	HandsBetween(ctx context.Context, from, to int64) ([]entity.Hand, error)
	// ActionsByPlayer returns the player's actions across all hands.
	ActionsByPlayer(ctx context.Context, playerID int64) ([]entity.Action, error)
	// PhasesByPlayer returns every phase record listing the player.
	PhasesByPlayer(ctx context.Context, playerID int64) ([]entity.PhaseRecord, error)

	// WithTx runs fn against a transaction-bound view of the store.
	WithTx(ctx context.Context, mode TxMode, fn func(tx Store) error) error
}
