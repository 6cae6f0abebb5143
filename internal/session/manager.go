package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rewardhub/internal/logger"
	"rewardhub/internal/metrics"
	"rewardhub/internal/model"
	"rewardhub/internal/repository"
	"rewardhub/internal/workflow"
)

// ResetZone is the fixed locale the daily reset follows (Asia/Ho_Chi_Minh,
// which has no DST).
var ResetZone = time.FixedZone("ICT", 7*60*60)

const resetDateLayout = "02/01/2006"

var ErrNoActiveUser = errors.New("no active user")

// Locker is a cross-instance mutex, e.g. lock.DistributedLock.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) (bool, error)
}

// LockFactory returns the lock for one calendar day, given as 2006-01-02.
type LockFactory func(day string) Locker

// Manager restores local state from the remote store on startup, tracks the
// active user and runs the once-a-day counter reset.
type Manager struct {
	mu      sync.Mutex
	active  string
	cleared bool

	// writeMu orders writes of the active-user key; dirty wakes the writer.
	writeMu sync.Mutex
	dirty   chan struct{}

	engine *workflow.Engine
	store  Store
	remote repository.RecordStore

	lockFactory  LockFactory
	writeTimeout time.Duration
	clock        func() time.Time
	log          *slog.Logger
}

type Option func(*Manager)

func WithLockFactory(f LockFactory) Option {
	return func(m *Manager) { m.lockFactory = f }
}

func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// NewManager registers itself as the engine's user observer.
func NewManager(engine *workflow.Engine, store Store, remote repository.RecordStore, opts ...Option) *Manager {
	m := &Manager{
		engine:       engine,
		store:        store,
		remote:       remote,
		dirty:        make(chan struct{}, 1),
		writeTimeout: 3 * time.Second,
		clock:        time.Now,
		log:          logger.WithComponent("Session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	engine.SetObserver(m)
	return m
}

// ============================================================================
// Startup reconciliation
// ============================================================================

// Restore rebuilds local state from the remote store, re-adopts the saved
// session user if they still exist, then runs the daily reset. A collection
// that fails to load is logged and left empty.
func (m *Manager) Restore(ctx context.Context) error {
	saved, err := m.savedEmail(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var (
		state   workflow.State
		usersOK bool
	)
	state.Users, usersOK = load[model.User](ctx, m, model.CollectionUsers)
	state.Tasks, _ = load[model.Task](ctx, m, model.CollectionTasks)
	state.Transactions, _ = load[model.Transaction](ctx, m, model.CollectionTransactions)
	state.Withdrawals, _ = load[model.WithdrawalRequest](ctx, m, model.CollectionWithdrawals)
	state.Deposits, _ = load[model.DepositRequest](ctx, m, model.CollectionDeposits)
	state.Announcements, _ = load[model.Announcement](ctx, m, model.CollectionAnnouncements)

	m.engine.Restore(state)

	switch {
	case saved == "":
	case !usersOK:
		// keep the pointer; the user list is unknown, not empty
		m.log.Warn("users unavailable, session not restored", "email", saved)
	default:
		if u, err := m.engine.User(saved); err == nil {
			m.setActive(u.Email)
			m.persist(ctx, u)
			m.log.Info("session restored", "email", u.Email, "balance", u.Balance)
		} else {
			m.log.Info("saved session user no longer exists", "email", saved)
			if err := m.store.Delete(ctx, KeyActiveUser); err != nil {
				m.log.Error("clear stale session", "error", err)
			}
		}
	}

	if !usersOK {
		// the reset job retries on its next tick
		m.log.Warn("users unavailable, daily reset deferred")
		return nil
	}
	if _, err := m.ResetIfNewDay(ctx); err != nil {
		m.log.Error("daily reset", "error", err)
	}
	return nil
}

func load[T any](ctx context.Context, m *Manager, collection string) ([]T, bool) {
	recs, err := m.remote.Select(ctx, collection, nil)
	if err != nil {
		m.log.Error("remote fetch failed", "collection", collection, "error", err)
		return nil, false
	}
	out, err := repository.DecodeAll[T](recs)
	if err != nil {
		m.log.Error("remote decode failed", "collection", collection, "error", err)
		return nil, false
	}
	return out, true
}

func (m *Manager) savedEmail(ctx context.Context) (string, error) {
	raw, ok, err := m.store.Get(ctx, KeyActiveUser)
	if err != nil || !ok {
		return "", err
	}
	var snap model.SessionSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		m.log.Warn("discarding unreadable session snapshot", "error", err)
		return "", nil
	}
	return snap.Email, nil
}

// ============================================================================
// Daily reset
// ============================================================================

// Today is the reset marker for the current clock reading.
func (m *Manager) Today() string {
	return m.clock().In(ResetZone).Format(resetDateLayout)
}

// ResetIfNewDay zeroes every user's TasksCompleted, remotely and locally, the
// first time it runs on a new calendar day, and records the day once both
// are done. It reports whether it reset.
func (m *Manager) ResetIfNewDay(ctx context.Context) (bool, error) {
	now := m.clock().In(ResetZone)
	today := now.Format(resetDateLayout)

	if done, err := m.resetDone(ctx, today); err != nil || done {
		return false, err
	}

	if m.lockFactory != nil {
		l := m.lockFactory(now.Format("2006-01-02"))
		acquired, err := l.Acquire(ctx)
		if err != nil {
			return false, fmt.Errorf("acquire reset lock: %w", err)
		}
		if !acquired {
			m.log.Info("daily reset running elsewhere", "date", today)
			return false, nil
		}
		defer func() {
			if _, err := l.Release(context.WithoutCancel(ctx)); err != nil {
				m.log.Warn("release reset lock", "error", err)
			}
		}()

		// another instance may have finished while we waited
		if done, err := m.resetDone(ctx, today); err != nil || done {
			return false, err
		}
	}

	n, err := m.engine.ResetTasksCompleted(ctx, m.resetRemote)
	if err != nil {
		return false, err
	}
	if err := m.store.Set(ctx, KeyLastResetDate, today); err != nil {
		return true, fmt.Errorf("persist reset marker: %w", err)
	}

	metrics.RecordDailyReset()
	m.log.Info("daily task counters reset", "date", today, "users", n)
	return true, nil
}

// resetRemote zeroes every remote counter in one write.
func (m *Manager) resetRemote(ctx context.Context) error {
	n, err := m.remote.UpdateAll(ctx, model.CollectionUsers, model.Record{"tasks_completed": 0})
	if err != nil {
		return err
	}
	m.log.Debug("remote task counters reset", "rows", n)
	return nil
}

func (m *Manager) resetDone(ctx context.Context, today string) (bool, error) {
	last, ok, err := m.store.Get(ctx, KeyLastResetDate)
	if err != nil {
		return false, fmt.Errorf("read reset marker: %w", err)
	}
	return ok && last == today, nil
}

// ============================================================================
// Active user
// ============================================================================

func (m *Manager) Login(ctx context.Context, email string) (model.User, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	u, err := m.engine.User(email)
	if err != nil {
		return model.User{}, err
	}
	m.setActive(u.Email)
	m.persist(ctx, u)
	m.log.Info("login", "email", u.Email)
	return u, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	email := m.active
	m.active = ""
	m.cleared = false
	m.mu.Unlock()

	if email == "" {
		return ErrNoActiveUser
	}
	m.log.Info("logout", "email", email)
	return m.store.Delete(ctx, KeyActiveUser)
}

// ActiveUser returns the signed-in user with their current balance.
func (m *Manager) ActiveUser() (model.User, bool) {
	m.mu.Lock()
	email := m.active
	m.mu.Unlock()

	if email == "" {
		return model.User{}, false
	}
	u, err := m.engine.User(email)
	if err != nil {
		return model.User{}, false
	}
	return u, true
}

func (m *Manager) setActive(email string) {
	m.mu.Lock()
	m.active = email
	m.cleared = false
	m.mu.Unlock()
}

func (m *Manager) isActive(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != "" && m.active == email
}

func (m *Manager) persist(ctx context.Context, u model.User) {
	raw, err := json.Marshal(u.Snapshot())
	if err != nil {
		m.log.Error("encode session snapshot", "error", err)
		return
	}
	if err := m.store.Set(ctx, KeyActiveUser, string(raw)); err != nil {
		m.log.Error("persist session snapshot", "email", u.Email, "error", err)
	}
}

// ============================================================================
// Snapshot writer
// ============================================================================

// UserChanged marks the saved snapshot stale when the active user changes.
// The write itself happens on the goroutine running Start.
func (m *Manager) UserChanged(u model.User) {
	if !m.isActive(u.Email) {
		return
	}
	m.markDirty()
}

// UserDeleted ends the session of a deleted active user. The saved snapshot
// is removed by the writer.
func (m *Manager) UserDeleted(email string) {
	m.mu.Lock()
	if m.active != email {
		m.mu.Unlock()
		return
	}
	m.active = ""
	m.cleared = true
	m.mu.Unlock()

	m.log.Info("active user deleted, session ended", "email", email)
	m.markDirty()
}

func (m *Manager) markDirty() {
	select {
	case m.dirty <- struct{}{}:
	default:
	}
}

// Start writes the active user's snapshot whenever it goes stale, until ctx
// is done. A change still pending at that point is written before returning.
func (m *Manager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			select {
			case <-m.dirty:
				m.flush(context.WithoutCancel(ctx))
			default:
			}
			return
		case <-m.dirty:
			m.flush(ctx)
		}
	}
}

// flush writes the current state of the active user, or removes the saved
// snapshot if the active user was deleted.
func (m *Manager) flush(ctx context.Context) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	email, cleared := m.active, m.cleared
	m.cleared = false
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.writeTimeout)
	defer cancel()

	if email == "" {
		if cleared {
			if err := m.store.Delete(ctx, KeyActiveUser); err != nil {
				m.log.Error("clear session of deleted user", "error", err)
			}
		}
		return
	}
	u, err := m.engine.User(email)
	if err != nil {
		return
	}
	m.persist(ctx, u)
}
