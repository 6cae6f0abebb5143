package workflow

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"sync"
	"time"

	"rewardhub/internal/ledger"
	"rewardhub/internal/logger"
	"rewardhub/internal/model"
	"rewardhub/internal/notify"
	"rewardhub/internal/repository"
	"rewardhub/internal/txlog"
)

// Syncer receives every local mutation for mirroring to the remote store.
// Enqueue must not block. Drain returns once every enqueued event has been
// applied.
type Syncer interface {
	Enqueue(ev model.SyncEvent)
	Drain(ctx context.Context) error
}

// UserObserver is told about every change to a user's record. It is called
// with the engine lock held, so it must neither block nor call back into the
// Engine.
type UserObserver interface {
	UserChanged(u model.User)
	UserDeleted(email string)
}

type noopSyncer struct{}

func (noopSyncer) Enqueue(model.SyncEvent) {}

func (noopSyncer) Drain(context.Context) error { return nil }

// Engine owns all local state: users and their balances, the transaction
// log, withdrawal and deposit requests, the task catalog and announcements.
//
// Every operation runs under one lock and follows the same order: mutate
// local state, enqueue the sync events, then tell observers and the
// notifier. Local state is authoritative; a failed remote write never rolls
// it back.
type Engine struct {
	mu sync.Mutex

	users  repository.UserRepository
	ledger *ledger.Ledger
	txs    *txlog.Log

	withdrawals   *book[model.WithdrawalRequest]
	deposits      *book[model.DepositRequest]
	tasks         *book[model.Task]
	announcements *book[model.Announcement]

	syncer   Syncer
	notifier notify.Notifier
	observer UserObserver

	log *slog.Logger
	now func() time.Time
}

func New(users repository.UserRepository, syncer Syncer, notifier notify.Notifier) *Engine {
	if syncer == nil {
		syncer = noopSyncer{}
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}
	return &Engine{
		users:         users,
		ledger:        ledger.New(users),
		txs:           txlog.New(),
		withdrawals:   newBook[model.WithdrawalRequest](),
		deposits:      newBook[model.DepositRequest](),
		tasks:         newBook[model.Task](),
		announcements: newBook[model.Announcement](),
		syncer:        syncer,
		notifier:      notifier,
		log:           logger.WithComponent("Workflow"),
		now:           time.Now,
	}
}

// SetObserver registers the single user observer. Call before serving.
func (e *Engine) SetObserver(o UserObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = o
}

func (e *Engine) emit(events ...model.SyncEvent) {
	for _, ev := range events {
		e.syncer.Enqueue(ev)
	}
}

func (e *Engine) userChanged(email string) {
	if e.observer == nil {
		return
	}
	if u, err := e.users.Get(email); err == nil {
		e.observer.UserChanged(u)
	}
}

// balanceEvent mirrors the user's current balance, and any extra columns.
func (e *Engine) balanceEvent(email string, extra model.Record) model.SyncEvent {
	bal, _ := e.ledger.Balance(email)
	patch := model.Record{"balance": bal}
	for k, v := range extra {
		patch[k] = v
	}
	return model.NewUpdateEvent(model.CollectionUsers, model.Filter{"email": email}, patch)
}

// ============================================================================
// Queries
// ============================================================================

func (e *Engine) User(email string) (model.User, error) {
	return e.users.Get(email)
}

func (e *Engine) Users() []model.User {
	return e.users.List()
}

func (e *Engine) Balance(email string) (int64, error) {
	return e.ledger.Balance(email)
}

// TransactionView is a lazy, newest-first view of the transaction log.
func (e *Engine) TransactionView(f txlog.Filter) iter.Seq[model.Transaction] {
	return e.txs.View(f)
}

func (e *Engine) Transactions(f txlog.Filter) []model.Transaction {
	return e.txs.List(f)
}

func (e *Engine) Transaction(id int64) (model.Transaction, bool) {
	return e.txs.Get(id)
}

// ============================================================================
// State exchange with the remote store
// ============================================================================

// State is the full set of collections, as fetched from or written to the
// remote store.
type State struct {
	Users         []model.User
	Tasks         []model.Task
	Transactions  []model.Transaction
	Withdrawals   []model.WithdrawalRequest
	Deposits      []model.DepositRequest
	Announcements []model.Announcement
}

// Restore replaces all local state. Nothing is mirrored back.
func (e *Engine) Restore(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.users.Replace(s.Users)
	e.txs.Load(s.Transactions)

	ws := append([]model.WithdrawalRequest(nil), s.Withdrawals...)
	sort.Slice(ws, func(i, j int) bool { return ws[i].ID < ws[j].ID })
	e.withdrawals = newBook[model.WithdrawalRequest]()
	for _, w := range ws {
		e.withdrawals.add(idKey(w.ID), w)
	}

	ds := append([]model.DepositRequest(nil), s.Deposits...)
	sort.Slice(ds, func(i, j int) bool { return ds[i].ID < ds[j].ID })
	e.deposits = newBook[model.DepositRequest]()
	for _, d := range ds {
		e.deposits.add(idKey(d.ID), d)
	}

	e.tasks = newBook[model.Task]()
	for _, t := range s.Tasks {
		e.tasks.add(t.ID, t)
	}

	as := append([]model.Announcement(nil), s.Announcements...)
	sort.Slice(as, func(i, j int) bool { return as[i].ID < as[j].ID })
	e.announcements = newBook[model.Announcement]()
	for _, a := range as {
		e.announcements.add(idKey(a.ID), a)
	}

	e.log.Info("state restored",
		"users", len(s.Users),
		"transactions", e.txs.Len(),
		"withdrawals", e.withdrawals.len(),
		"deposits", e.deposits.len(),
		"tasks", e.tasks.len(),
		"announcements", e.announcements.len())
}

// Snapshot copies all local state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return State{
		Users:         e.users.List(),
		Tasks:         e.tasks.oldestFirst(),
		Transactions:  e.txs.List(txlog.Filter{}),
		Withdrawals:   e.withdrawals.newestFirst(nil),
		Deposits:      e.deposits.newestFirst(nil),
		Announcements: e.announcements.newestFirst(nil),
	}
}

// ResetTasksCompleted zeroes every user's daily task counter. With the engine
// locked it first flushes the sync queue and then runs remoteReset, so no
// per-user update enqueued earlier can land on top of the remote reset.
// Local counters are only reset once remoteReset succeeds. It returns the
// number of users reset.
func (e *Engine) ResetTasksCompleted(ctx context.Context, remoteReset func(context.Context) error) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if remoteReset != nil {
		if err := e.syncer.Drain(ctx); err != nil {
			return 0, fmt.Errorf("flush sync queue: %w", err)
		}
		if err := remoteReset(ctx); err != nil {
			return 0, fmt.Errorf("remote reset: %w", err)
		}
	}

	users := e.users.List()
	for _, u := range users {
		u.TasksCompleted = 0
		if err := e.users.Save(u); err != nil {
			e.log.Error("reset tasks completed", "email", u.Email, "error", err)
			continue
		}
		if e.observer != nil {
			e.observer.UserChanged(u)
		}
	}
	return len(users), nil
}
