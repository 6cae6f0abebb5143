package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rewardhub/internal/model"
	"rewardhub/internal/notify"
	"rewardhub/internal/repository"
	"rewardhub/internal/txlog"
)

type recordingSyncer struct {
	mu     sync.Mutex
	events []model.SyncEvent
	drains int
}

func (s *recordingSyncer) Drain(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drains++
	return nil
}

func (s *recordingSyncer) Enqueue(ev model.SyncEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSyncer) take() []model.SyncEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) UserChanged(u model.User) {
	m.Called(u)
}

func (m *mockObserver) UserDeleted(email string) {
	m.Called(email)
}

type fixture struct {
	engine   *Engine
	syncer   *recordingSyncer
	notifier *notify.Recorder
}

func newFixture(t *testing.T, users ...model.User) fixture {
	t.Helper()
	repo := repository.NewMemoryUserRepository()
	for _, u := range users {
		require.NoError(t, repo.Save(u))
	}
	f := fixture{syncer: &recordingSyncer{}, notifier: notify.NewRecorder(0)}
	f.engine = New(repo, f.syncer, f.notifier)
	return f
}

func user(email string, balance int64) model.User {
	return model.User{Email: email, Name: email, Role: model.RoleUser, Balance: balance}
}

func (f fixture) balance(t *testing.T, email string) int64 {
	t.Helper()
	b, err := f.engine.Balance(email)
	require.NoError(t, err)
	return b
}

func TestNew_Defaults(t *testing.T) {
	e := New(repository.NewMemoryUserRepository(), nil, nil)
	require.NotNil(t, e.syncer)
	require.NotNil(t, e.notifier)

	_, err := e.RegisterUser("a@x.vn", "A")
	assert.NoError(t, err)
}

func TestCompleteTask_AlwaysCredits(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 0))

	tx1, err := f.engine.CompleteTask("a@x.vn", "T1", 150, "Theo dõi fanpage")
	require.NoError(t, err)
	tx2, err := f.engine.CompleteTask("a@x.vn", "T1", 150, "Theo dõi fanpage")
	require.NoError(t, err)

	assert.Equal(t, int64(300), f.balance(t, "a@x.vn"))
	u, _ := f.engine.User("a@x.vn")
	assert.Equal(t, 2, u.TasksCompleted)

	for _, tx := range []model.Transaction{tx1, tx2} {
		assert.Equal(t, model.KindTask, tx.Kind)
		assert.Equal(t, model.StatusSuccess, tx.Status)
		assert.Equal(t, int64(150), tx.Amount)
	}

	events := f.syncer.take()
	require.Len(t, events, 4)
	assert.Equal(t, model.SyncOpUpdate, events[0].Op)
	assert.Equal(t, model.Record{"balance": int64(150), "tasks_completed": 1}, events[0].Record)
	assert.Equal(t, model.CollectionTransactions, events[1].Collection)
	assert.Equal(t, model.SyncOpInsert, events[1].Op)
}

func TestCompleteTask_Errors(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 0))

	_, err := f.engine.CompleteTask("a@x.vn", "T1", -1, "x")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.engine.CompleteTask("nobody@x.vn", "T1", 150, "x")
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.Zero(t, f.engine.txs.Len())
	assert.Empty(t, f.syncer.take())
}

func TestCompleteTask_Concurrent(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 0))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.CompleteTask("a@x.vn", "T1", 150, "x")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50*150), f.balance(t, "a@x.vn"))
	assert.Equal(t, 50, f.engine.txs.Len())
}

func TestRegisterUser(t *testing.T) {
	f := newFixture(t)

	u, err := f.engine.RegisterUser(" a@x.vn ", "An")
	require.NoError(t, err)
	assert.Equal(t, model.User{Email: "a@x.vn", Name: "An", Role: model.RoleUser}, u)

	_, err = f.engine.RegisterUser("a@x.vn", "An again")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = f.engine.RegisterUser("", "nobody")
	assert.ErrorIs(t, err, ErrInvalidUser)

	events := f.syncer.take()
	require.Len(t, events, 1)
	assert.Equal(t, model.SyncOpInsert, events[0].Op)
	assert.Equal(t, "a@x.vn", events[0].Record["email"])
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 10))
	obs := &mockObserver{}
	obs.On("UserDeleted", "a@x.vn").Once()
	f.engine.SetObserver(obs)

	require.NoError(t, f.engine.DeleteUser("a@x.vn"))
	assert.ErrorIs(t, f.engine.DeleteUser("a@x.vn"), ErrUserNotFound)

	obs.AssertExpectations(t)
	last, _ := f.notifier.Last()
	assert.Equal(t, "Đã xóa người dùng a@x.vn", last.Message)

	events := f.syncer.take()
	require.Len(t, events, 1)
	assert.Equal(t, model.NewDeleteEvent(model.CollectionUsers, model.Filter{"email": "a@x.vn"}).Match, events[0].Match)
}

func TestAdjustBalance(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 1000))
	obs := &mockObserver{}
	obs.On("UserChanged", mock.MatchedBy(func(u model.User) bool { return u.Balance == 1500 })).Once()
	f.engine.SetObserver(obs)

	bal, err := f.engine.AdjustBalance("a@x.vn", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), bal)

	_, err = f.engine.AdjustBalance("a@x.vn", -2000)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, int64(1500), f.balance(t, "a@x.vn"))

	// adjustments are not part of the history
	assert.Zero(t, f.engine.txs.Len())
	obs.AssertExpectations(t)
}

func TestTaskCatalog(t *testing.T) {
	f := newFixture(t)

	added, err := f.engine.AddTask(model.Task{Title: "Like video", IsHot: true, TargetURL: "https://example.vn"})
	require.NoError(t, err)
	assert.Regexp(t, `^T\d{4}$`, added.ID)
	assert.Equal(t, DefaultTaskReward, added.Reward)
	assert.Equal(t, 1, added.Total)

	custom, err := f.engine.AddTask(model.Task{ID: "HOT1", Title: "Share", Reward: 500, Total: 3, Progress: 2})
	require.NoError(t, err)
	assert.Zero(t, custom.Progress)

	_, err = f.engine.AddTask(model.Task{ID: "HOT1", Title: "dup"})
	assert.ErrorIs(t, err, ErrInvalidTask)
	_, err = f.engine.AddTask(model.Task{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidTask)

	got, ok := f.engine.Task("HOT1")
	require.True(t, ok)
	assert.Equal(t, int64(500), got.Reward)
	assert.Len(t, f.engine.Tasks(), 2)

	require.NoError(t, f.engine.DeleteTask("HOT1"))
	assert.ErrorIs(t, f.engine.DeleteTask("HOT1"), ErrTaskNotFound)
	assert.Len(t, f.engine.Tasks(), 1)

	events := f.syncer.take()
	require.Len(t, events, 3)
	assert.Equal(t, model.SyncOpDelete, events[2].Op)
	assert.Equal(t, model.Filter{"id": "HOT1"}, events[2].Match)
}

func TestAnnouncements(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.AddAnnouncement("", "body")
	assert.ErrorIs(t, err, ErrInvalidAnnouncement)

	first, err := f.engine.AddAnnouncement("Bảo trì", "22h tối nay")
	require.NoError(t, err)
	second, err := f.engine.AddAnnouncement("Sự kiện", "x2 thưởng")
	require.NoError(t, err)

	list := f.engine.Announcements()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Len(t, f.syncer.take(), 2)
}

func TestRestoreSnapshot(t *testing.T) {
	f := newFixture(t, user("stale@x.vn", 1))

	state := State{
		Users: []model.User{user("a@x.vn", 40000), user("b@x.vn", 0)},
		Tasks: []model.Task{{ID: "T0001", Title: "t", Reward: 150, Total: 1}},
		Transactions: []model.Transaction{
			{ID: 1, Kind: model.KindTask, Amount: 150, Status: model.StatusSuccess, UserEmail: "a@x.vn"},
			{ID: 2, Kind: model.KindWithdraw, Amount: -60000, Status: model.StatusPending, UserEmail: "a@x.vn"},
		},
		Withdrawals: []model.WithdrawalRequest{
			{ID: 2, UserEmail: "a@x.vn", Amount: 60000, Bank: "VCB", Account: "1", Status: model.StatusPending},
		},
		Deposits:      []model.DepositRequest{{ID: 3, UserEmail: "b@x.vn", Amount: 20000, Status: model.StatusSuccess}},
		Announcements: []model.Announcement{{ID: 5, Title: "old"}, {ID: 9, Title: "new"}},
	}
	f.engine.Restore(state)

	_, err := f.engine.User("stale@x.vn")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, f.syncer.take(), "restore must not mirror back")

	snap := f.engine.Snapshot()
	assert.Equal(t, state.Users, snap.Users)
	assert.Equal(t, int64(2), snap.Transactions[0].ID)
	assert.Equal(t, "new", snap.Announcements[0].Title)

	// restored requests resolve like local ones
	_, err = f.engine.RejectWithdrawal(2)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), f.balance(t, "a@x.vn"))

	_, err = f.engine.ApproveDeposit(3)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestResetTasksCompleted(t *testing.T) {
	a, b := user("a@x.vn", 0), user("b@x.vn", 0)
	a.TasksCompleted, b.TasksCompleted = 4, 1
	f := newFixture(t, a, b)

	obs := &mockObserver{}
	obs.On("UserChanged", mock.Anything).Twice()
	f.engine.SetObserver(obs)

	var drainsBeforeRemote int
	n, err := f.engine.ResetTasksCompleted(context.Background(), func(context.Context) error {
		f.syncer.mu.Lock()
		drainsBeforeRemote = f.syncer.drains
		f.syncer.mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, drainsBeforeRemote)

	for _, u := range f.engine.Users() {
		assert.Zero(t, u.TasksCompleted)
	}
	// the remote side is reset in bulk, not per user
	assert.Empty(t, f.syncer.take())
	obs.AssertExpectations(t)
}

func TestResetTasksCompleted_RemoteFails(t *testing.T) {
	a := user("a@x.vn", 0)
	a.TasksCompleted = 3
	f := newFixture(t, a)

	_, err := f.engine.ResetTasksCompleted(context.Background(), func(context.Context) error {
		return errors.New("remote unavailable")
	})
	require.Error(t, err)

	u, err := f.engine.User("a@x.vn")
	require.NoError(t, err)
	assert.Equal(t, 3, u.TasksCompleted)
}

func TestTransactionsView(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 1000), user("b@x.vn", 0))

	_, err := f.engine.CompleteTask("b@x.vn", "T1", 150, "t")
	require.NoError(t, err)
	_, err = f.engine.RequestWithdrawal("a@x.vn", 500, WithdrawalDestination{Bank: "VCB", Account: "1"})
	require.NoError(t, err)

	mine := f.engine.Transactions(txlog.Filter{UserEmail: "a@x.vn"})
	require.Len(t, mine, 1)
	assert.Equal(t, "Rút tiền về VCB", mine[0].Title)

	n := 0
	for range f.engine.TransactionView(txlog.Filter{}) {
		n++
	}
	assert.Equal(t, 2, n)
}
