package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewardhub/internal/model"
	"rewardhub/internal/notify"
	"rewardhub/internal/txlog"
)

var vcb = WithdrawalDestination{Bank: "Vietcombank", Account: "0123456789"}

func TestRequestWithdrawal_InsufficientBalance(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 0))

	_, err := f.engine.RequestWithdrawal("a@x.vn", 50000, vcb)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Equal(t, int64(0), f.balance(t, "a@x.vn"))
	assert.Zero(t, f.engine.txs.Len())
	assert.Empty(t, f.engine.Withdrawals(""))
	assert.Empty(t, f.syncer.take())

	last, ok := f.notifier.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Error, last.Severity)
}

func TestRequestWithdrawal_Validation(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 100))

	tests := []struct {
		name    string
		email   string
		amount  int64
		dest    WithdrawalDestination
		wantErr error
	}{
		{"zero amount", "a@x.vn", 0, vcb, ErrInvalidAmount},
		{"negative amount", "a@x.vn", -5, vcb, ErrInvalidAmount},
		{"missing bank", "a@x.vn", 10, WithdrawalDestination{Account: "1"}, ErrInvalidDestination},
		{"missing account", "a@x.vn", 10, WithdrawalDestination{Bank: "VCB", Account: " "}, ErrInvalidDestination},
		{"unknown user", "nobody@x.vn", 10, vcb, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.RequestWithdrawal(tt.email, tt.amount, tt.dest)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, int64(100), f.balance(t, "a@x.vn"))
}

func TestWithdrawal_RequestThenReject(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 100000))

	w, err := f.engine.RequestWithdrawal("a@x.vn", 60000, vcb)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), f.balance(t, "a@x.vn"))

	tx, ok := f.engine.Transaction(w.ID)
	require.True(t, ok)
	assert.Equal(t, model.KindWithdraw, tx.Kind)
	assert.Equal(t, int64(-60000), tx.Amount)
	assert.Equal(t, model.StatusPending, tx.Status)
	assert.Equal(t, "Rút tiền về Vietcombank", tx.Title)
	assert.Equal(t, model.StatusPending, w.Status)
	assert.Equal(t, int64(60000), w.Amount)

	created := f.syncer.take()
	require.Len(t, created, 3)
	assert.Equal(t, []string{model.CollectionUsers, model.CollectionTransactions, model.CollectionWithdrawals},
		[]string{created[0].Collection, created[1].Collection, created[2].Collection})
	assert.Equal(t, model.Record{"balance": int64(40000)}, created[0].Record)

	rejected, err := f.engine.RejectWithdrawal(w.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)
	assert.Equal(t, 1, rejected.Version)
	assert.Equal(t, int64(100000), f.balance(t, "a@x.vn"))

	tx, _ = f.engine.Transaction(w.ID)
	assert.Equal(t, model.StatusRejected, tx.Status)

	resolved := f.syncer.take()
	require.Len(t, resolved, 3)
	assert.Equal(t, model.Record{"balance": int64(100000)}, resolved[0].Record)
	assert.Equal(t, model.Filter{"id": w.ID, "version": 0}, resolved[1].Match)
	assert.Equal(t, model.Record{"status": model.StatusRejected, "version": 1}, resolved[1].Record)
	assert.Equal(t, model.Filter{"id": w.ID}, resolved[2].Match)

	// a second resolution has no effect at all
	_, err = f.engine.RejectWithdrawal(w.ID)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	_, err = f.engine.ApproveWithdrawal(w.ID)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.Equal(t, int64(100000), f.balance(t, "a@x.vn"))
	assert.Empty(t, f.syncer.take())
}

func TestWithdrawal_ApproveKeepsBalance(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 50000))

	w, err := f.engine.RequestWithdrawal("a@x.vn", 50000, vcb)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.balance(t, "a@x.vn"))

	approved, err := f.engine.ApproveWithdrawal(w.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, approved.Status)
	assert.Equal(t, int64(0), f.balance(t, "a@x.vn"))

	_, err = f.engine.RejectWithdrawal(w.ID)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.Equal(t, int64(0), f.balance(t, "a@x.vn"))
}

func TestRejectWithdrawal_RefundsOwner(t *testing.T) {
	f := newFixture(t, user("owner@x.vn", 1000), user("admin@x.vn", 5))

	w, err := f.engine.RequestWithdrawal("owner@x.vn", 700, vcb)
	require.NoError(t, err)

	_, err = f.engine.RejectWithdrawal(w.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), f.balance(t, "owner@x.vn"))
	assert.Equal(t, int64(5), f.balance(t, "admin@x.vn"))
}

func TestRejectWithdrawal_OwnerDeleted(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 1000))

	w, err := f.engine.RequestWithdrawal("a@x.vn", 700, vcb)
	require.NoError(t, err)
	require.NoError(t, f.engine.DeleteUser("a@x.vn"))
	f.syncer.take()

	rejected, err := f.engine.RejectWithdrawal(w.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)
	assert.Equal(t, 1, rejected.Version)

	tx, ok := f.engine.Transaction(w.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusRejected, tx.Status)

	// nobody is credited and the user is not recreated
	_, err = f.engine.User("a@x.vn")
	assert.ErrorIs(t, err, ErrUserNotFound)
	for _, ev := range f.syncer.take() {
		assert.NotEqual(t, model.CollectionUsers, ev.Collection)
	}

	_, err = f.engine.RejectWithdrawal(w.ID)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestResolve_UnknownRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.ApproveWithdrawal(1)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.engine.RejectWithdrawal(1)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.engine.ApproveDeposit(1)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.engine.RejectDeposit(1)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestDeposit_NoLedgerEffect(t *testing.T) {
	target := DepositTarget{Game: "Liên Quân", PackageName: "Gói 50K", GameAccountID: "lq-77"}

	tests := []struct {
		name    string
		resolve func(e *Engine, id int64) (model.DepositRequest, error)
		status  string
	}{
		{"approve", (*Engine).ApproveDeposit, model.StatusSuccess},
		{"reject", (*Engine).RejectDeposit, model.StatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, user("a@x.vn", 300))

			d, err := f.engine.RequestDeposit("a@x.vn", 50000, target)
			require.NoError(t, err)
			assert.Equal(t, int64(300), f.balance(t, "a@x.vn"))

			tx, ok := f.engine.Transaction(d.ID)
			require.True(t, ok)
			assert.Equal(t, "Nạp Gói 50K - Liên Quân", tx.Title)
			assert.Equal(t, int64(50000), tx.Amount)
			assert.Equal(t, model.KindTopup, tx.Kind)

			resolved, err := tt.resolve(f.engine, d.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resolved.Status)
			assert.Equal(t, int64(300), f.balance(t, "a@x.vn"))

			_, err = tt.resolve(f.engine, d.ID)
			assert.ErrorIs(t, err, ErrAlreadyResolved)

			events := f.syncer.take()
			for _, ev := range events {
				assert.NotEqual(t, model.CollectionUsers, ev.Collection)
			}
		})
	}
}

func TestRequestDeposit_Validation(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 0))
	target := DepositTarget{Game: "FF", PackageName: "100KC", GameAccountID: "1"}

	_, err := f.engine.RequestDeposit("a@x.vn", 0, target)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.engine.RequestDeposit("a@x.vn", 10, DepositTarget{Game: "FF"})
	assert.ErrorIs(t, err, ErrInvalidTarget)
	_, err = f.engine.RequestDeposit("nobody@x.vn", 10, target)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRequestLists(t *testing.T) {
	f := newFixture(t, user("a@x.vn", 1000))

	w1, _ := f.engine.RequestWithdrawal("a@x.vn", 100, vcb)
	w2, _ := f.engine.RequestWithdrawal("a@x.vn", 200, vcb)
	_, err := f.engine.ApproveWithdrawal(w1.ID)
	require.NoError(t, err)

	all := f.engine.Withdrawals("")
	require.Len(t, all, 2)
	assert.Equal(t, w2.ID, all[0].ID)

	pending := f.engine.Withdrawals(model.StatusPending)
	require.Len(t, pending, 1)
	assert.Equal(t, w2.ID, pending[0].ID)

	target := DepositTarget{Game: "FF", PackageName: "100KC", GameAccountID: "1"}
	d, _ := f.engine.RequestDeposit("a@x.vn", 20000, target)
	assert.Len(t, f.engine.Deposits(model.StatusPending), 1)
	assert.Empty(t, f.engine.Deposits(model.StatusSuccess))
	got, ok := f.engine.Deposit(d.ID)
	require.True(t, ok)
	assert.Equal(t, "FF", got.Game)

	// history and requests line up by id
	history := f.engine.Transactions(txlog.Filter{Kind: model.KindWithdraw})
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusSuccess, history[1].Status)
}
