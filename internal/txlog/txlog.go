package txlog

import (
	"errors"
	"iter"
	"sort"
	"sync"
	"time"

	"rewardhub/internal/model"
	"rewardhub/pkg/idgen"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyResolved     = errors.New("transaction already resolved")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// Log is the in-memory transaction history, newest first. Entries are never
// removed; only a pending entry's status can change, once.
type Log struct {
	mu sync.RWMutex
	// oldest first; readers walk it backwards
	entries []model.Transaction
	index   map[int64]int

	nextID func() int64
	now    func() time.Time
}

func New() *Log {
	return &Log{
		index:  make(map[int64]int),
		nextID: idgen.NextID,
		now:    time.Now,
	}
}

// Append records a new transaction at the head of the log and returns it.
func (l *Log) Append(kind, title string, amount int64, status, userEmail string) model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := model.Transaction{
		ID:        l.nextID(),
		Kind:      kind,
		Title:     title,
		Amount:    amount,
		Status:    status,
		UserEmail: userEmail,
		CreatedAt: l.now(),
	}
	l.index[t.ID] = len(l.entries)
	l.entries = append(l.entries, t)
	return t
}

func (l *Log) UpdateStatus(id int64, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[id]
	if !ok {
		return ErrTransactionNotFound
	}
	cur := l.entries[i].Status
	if cur != model.StatusPending {
		return ErrAlreadyResolved
	}
	if !model.CanTransitionTo(cur, status) {
		return ErrInvalidTransition
	}
	l.entries[i].Status = status
	return nil
}

func (l *Log) Get(id int64) (model.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.index[id]
	if !ok {
		return model.Transaction{}, false
	}
	return l.entries[i], true
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Load replaces the whole log, e.g. with the remote copy on startup.
// Duplicate ids keep the last occurrence.
func (l *Log) Load(txs []model.Transaction) {
	byID := make(map[int64]model.Transaction, len(txs))
	for _, t := range txs {
		byID[t.ID] = t
	}
	entries := make([]model.Transaction, 0, len(byID))
	for _, t := range byID {
		entries = append(entries, t)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	index := make(map[int64]int, len(entries))
	for i, t := range entries {
		index[t.ID] = i
	}

	l.mu.Lock()
	l.entries = entries
	l.index = index
	l.mu.Unlock()
}

// Filter narrows a View. Zero fields match everything.
type Filter struct {
	Kind      string
	Status    string
	UserEmail string
}

func (f Filter) match(t model.Transaction) bool {
	return (f.Kind == "" || t.Kind == f.Kind) &&
		(f.Status == "" || t.Status == f.Status) &&
		(f.UserEmail == "" || t.UserEmail == f.UserEmail)
}

// View yields matching transactions newest first. It covers the entries
// present when iteration starts; each range over it starts again from the
// head. Yielded values are copies.
func (l *Log) View(f Filter) iter.Seq[model.Transaction] {
	return func(yield func(model.Transaction) bool) {
		l.mu.RLock()
		entries := l.entries
		l.mu.RUnlock()

		for i := len(entries) - 1; i >= 0; i-- {
			l.mu.RLock()
			t := entries[i]
			l.mu.RUnlock()

			if !f.match(t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// List collects View(f).
func (l *Log) List(f Filter) []model.Transaction {
	out := make([]model.Transaction, 0)
	for t := range l.View(f) {
		out = append(out, t)
	}
	return out
}
