package memstore

import (
	"context"
	"sync"
)

// Participant is a store whose state a Transactor can checkpoint and restore.
type Participant interface {
	// Checkpoint captures the current state and returns a function restoring it.
	Checkpoint() (rollback func())
}

type txContextKey struct{}

// Transactor implements versionhistory.Transactor over in-memory Participants.
type Transactor struct {
	mu           sync.Mutex
	participants []Participant
	begins       int
	commits      int
	rollbacks    int
}

// NewTransactor creates a Transactor whose transactions span all participants.
func NewTransactor(participants ...Participant) *Transactor {
	return &Transactor{participants: participants}
}

// InTransaction runs fn and restores every participant if fn fails.
// Calls nested inside a running transaction join it.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txContextKey{}) != nil {
		return fn(ctx)
	}

	rollbacks := make([]func(), 0, len(t.participants))
	for _, participant := range t.participants {
		rollbacks = append(rollbacks, participant.Checkpoint())
	}

	t.count(&t.begins)

	if err := fn(context.WithValue(ctx, txContextKey{}, t)); err != nil {
		for i := len(rollbacks) - 1; i >= 0; i-- {
			rollbacks[i]()
		}

		t.count(&t.rollbacks)

		return err
	}

	t.count(&t.commits)

	return nil
}

// InTransactionContext reports whether ctx belongs to a running transaction.
func InTransactionContext(ctx context.Context) bool {
	return ctx.Value(txContextKey{}) != nil
}

func (t *Transactor) count(counter *int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	*counter++
}

// Begins returns how many top-level transactions were started.
func (t *Transactor) Begins() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.begins
}

// Commits returns how many transactions were committed.
func (t *Transactor) Commits() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.commits
}

// Rollbacks returns how many transactions were rolled back.
func (t *Transactor) Rollbacks() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.rollbacks
}
