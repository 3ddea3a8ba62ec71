package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/session"
	"github.com/google/uuid"
)

// Transaction is what both the deposit and the withdrawal wizard expose.
type Transaction interface {
	Next() error
	Back() error
	Submit(ctx context.Context) error
	Restart() error
	Cancel() error
	Edit(fn func(draft *models.TransactionDraft) error) error
	Snapshot() Snapshot[models.TransactionDraft]
	InFlight() bool
}

// Entry is one open wizard and the session it submits with.
type Entry struct {
	ID      uuid.UUID
	Owner   string
	Session *session.Context
	Wizard  Transaction

	lastSeen time.Time
}

// Registry keeps open wizards in memory, keyed by id and scoped to the user
// that opened them.
type Registry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*Entry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{entries: map[uuid.UUID]*Entry{}, now: time.Now}
}

func (r *Registry) Add(owner string, sess *session.Context, w Transaction) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Entry{ID: uuid.New(), Owner: owner, Session: sess, Wizard: w, lastSeen: r.now()}
	r.entries[e.ID] = e
	return e
}

// Get returns the wizard only to its owner; anyone else sees
// ErrWizardNotFound.
func (r *Registry) Get(id uuid.UUID, owner string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.Owner != owner {
		return nil, ErrWizardNotFound
	}
	e.lastSeen = r.now()
	return e, nil
}

func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops wizards untouched for longer than maxIdle, except those with
// a submission in flight, and returns how many were dropped.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) && !e.Wizard.InFlight() {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}
