package workflow

import (
	"fmt"
	"strings"

	"rewardhub/internal/metrics"
	"rewardhub/internal/model"
	"rewardhub/internal/notify"
)

type WithdrawalDestination struct {
	Bank    string
	Account string
}

type DepositTarget struct {
	Game          string
	PackageName   string
	GameAccountID string
}

// ============================================================================
// Withdrawals
// ============================================================================

// RequestWithdrawal debits amount immediately and records a pending
// withdrawal. On ErrInsufficientBalance nothing has changed.
func (e *Engine) RequestWithdrawal(email string, amount int64, dest WithdrawalDestination) (model.WithdrawalRequest, error) {
	if amount <= 0 {
		return model.WithdrawalRequest{}, ErrInvalidAmount
	}
	dest.Bank = strings.TrimSpace(dest.Bank)
	dest.Account = strings.TrimSpace(dest.Account)
	if dest.Bank == "" || dest.Account == "" {
		return model.WithdrawalRequest{}, ErrInvalidDestination
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.ledger.Debit(email, amount)
	if err != nil {
		return model.WithdrawalRequest{}, err
	}
	if !ok {
		metrics.RecordRequest(model.KindWithdraw, "refused")
		e.notifier.Notify("Số dư không đủ để rút tiền", notify.Error)
		return model.WithdrawalRequest{}, ErrInsufficientBalance
	}

	tx := e.txs.Append(model.KindWithdraw, "Rút tiền về "+dest.Bank, -amount, model.StatusPending, email)
	w := model.WithdrawalRequest{
		ID:        tx.ID,
		UserEmail: email,
		Amount:    amount,
		Bank:      dest.Bank,
		Account:   dest.Account,
		Status:    model.StatusPending,
		CreatedAt: tx.CreatedAt,
	}
	e.withdrawals.add(idKey(w.ID), w)

	e.emit(
		e.balanceEvent(email, nil),
		model.NewInsertEvent(model.CollectionTransactions, tx.Record()),
		model.NewInsertEvent(model.CollectionWithdrawals, w.Record()),
	)
	e.userChanged(email)

	metrics.RecordRequest(model.KindWithdraw, "created")
	e.notifier.Notify("Yêu cầu rút tiền đã được gửi, vui lòng chờ duyệt", notify.Success)
	e.log.Info("withdrawal requested", "id", w.ID, "email", email, "amount", amount)
	return w, nil
}

func (e *Engine) ApproveWithdrawal(id int64) (model.WithdrawalRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.withdrawals.get(idKey(id))
	if !ok {
		return model.WithdrawalRequest{}, ErrRequestNotFound
	}
	if err := e.checkPending(id, w.Status); err != nil {
		return *w, err
	}

	e.resolve(model.CollectionWithdrawals, id, &w.Status, &w.Version, model.StatusSuccess)

	metrics.RecordRequest(model.KindWithdraw, "approved")
	e.notifier.Notify(fmt.Sprintf("Đã duyệt rút %d về %s", w.Amount, w.Bank), notify.Success)
	e.log.Info("withdrawal approved", "id", id, "email", w.UserEmail)
	return *w, nil
}

// RejectWithdrawal refunds the request's owner, whoever is signed in. If the
// owner has been deleted there is nobody to refund, and the request is
// rejected without one.
func (e *Engine) RejectWithdrawal(id int64) (model.WithdrawalRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.withdrawals.get(idKey(id))
	if !ok {
		return model.WithdrawalRequest{}, ErrRequestNotFound
	}
	if err := e.checkPending(id, w.Status); err != nil {
		return *w, err
	}

	if !e.users.Exists(w.UserEmail) {
		e.resolve(model.CollectionWithdrawals, id, &w.Status, &w.Version, model.StatusRejected)

		metrics.RecordRequest(model.KindWithdraw, "rejected")
		e.notifier.Notify(fmt.Sprintf("Đã từ chối yêu cầu rút của %s, tài khoản không còn tồn tại", w.UserEmail), notify.Info)
		e.log.Warn("withdrawal rejected without refund, owner deleted", "id", id, "email", w.UserEmail, "amount", w.Amount)
		return *w, nil
	}

	if err := e.ledger.Credit(w.UserEmail, w.Amount); err != nil {
		return *w, fmt.Errorf("refund withdrawal %d: %w", id, err)
	}
	e.emit(e.balanceEvent(w.UserEmail, nil))
	e.resolve(model.CollectionWithdrawals, id, &w.Status, &w.Version, model.StatusRejected)
	e.userChanged(w.UserEmail)

	metrics.RecordRequest(model.KindWithdraw, "rejected")
	e.notifier.Notify(fmt.Sprintf("Đã từ chối và hoàn %d cho %s", w.Amount, w.UserEmail), notify.Info)
	e.log.Info("withdrawal rejected", "id", id, "email", w.UserEmail, "refund", w.Amount)
	return *w, nil
}

func (e *Engine) Withdrawal(id int64) (model.WithdrawalRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.withdrawals.get(idKey(id))
	if !ok {
		return model.WithdrawalRequest{}, false
	}
	return *w, true
}

// Withdrawals lists requests newest first. An empty status lists all.
func (e *Engine) Withdrawals(status string) []model.WithdrawalRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.withdrawals.newestFirst(func(w *model.WithdrawalRequest) bool {
		return status == "" || w.Status == status
	})
}

// ============================================================================
// Deposits
// ============================================================================

// RequestDeposit records a pending game top-up. The balance is not touched;
// the money is collected outside the system.
func (e *Engine) RequestDeposit(email string, amount int64, target DepositTarget) (model.DepositRequest, error) {
	if amount <= 0 {
		return model.DepositRequest{}, ErrInvalidAmount
	}
	if target.Game == "" || target.PackageName == "" || target.GameAccountID == "" {
		return model.DepositRequest{}, ErrInvalidTarget
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.users.Exists(email) {
		return model.DepositRequest{}, ErrUserNotFound
	}

	title := fmt.Sprintf("Nạp %s - %s", target.PackageName, target.Game)
	tx := e.txs.Append(model.KindTopup, title, amount, model.StatusPending, email)
	d := model.DepositRequest{
		ID:            tx.ID,
		UserEmail:     email,
		Amount:        amount,
		Game:          target.Game,
		PackageName:   target.PackageName,
		GameAccountID: target.GameAccountID,
		Status:        model.StatusPending,
		CreatedAt:     tx.CreatedAt,
	}
	e.deposits.add(idKey(d.ID), d)

	e.emit(
		model.NewInsertEvent(model.CollectionTransactions, tx.Record()),
		model.NewInsertEvent(model.CollectionDeposits, d.Record()),
	)

	metrics.RecordRequest(model.KindTopup, "created")
	e.notifier.Notify("Yêu cầu nạp đã được gửi, vui lòng chờ duyệt", notify.Success)
	e.log.Info("deposit requested", "id", d.ID, "email", email, "amount", amount, "game", d.Game)
	return d, nil
}

func (e *Engine) ApproveDeposit(id int64) (model.DepositRequest, error) {
	return e.resolveDeposit(id, model.StatusSuccess)
}

func (e *Engine) RejectDeposit(id int64) (model.DepositRequest, error) {
	return e.resolveDeposit(id, model.StatusRejected)
}

func (e *Engine) resolveDeposit(id int64, status string) (model.DepositRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.deposits.get(idKey(id))
	if !ok {
		return model.DepositRequest{}, ErrRequestNotFound
	}
	if err := e.checkPending(id, d.Status); err != nil {
		return *d, err
	}

	e.resolve(model.CollectionDeposits, id, &d.Status, &d.Version, status)

	event, msg := "approved", "Đã duyệt nạp %s cho %s"
	if status == model.StatusRejected {
		event, msg = "rejected", "Đã từ chối nạp %s cho %s"
	}
	metrics.RecordRequest(model.KindTopup, event)
	e.notifier.Notify(fmt.Sprintf(msg, d.PackageName, d.UserEmail), notify.Success)
	e.log.Info("deposit "+event, "id", id, "email", d.UserEmail)
	return *d, nil
}

func (e *Engine) Deposit(id int64) (model.DepositRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.deposits.get(idKey(id))
	if !ok {
		return model.DepositRequest{}, false
	}
	return *d, true
}

func (e *Engine) Deposits(status string) []model.DepositRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.deposits.newestFirst(func(d *model.DepositRequest) bool {
		return status == "" || d.Status == status
	})
}

// ============================================================================
// Resolution
// ============================================================================

// checkPending refuses a resolution if either the request or its
// transaction has already left pending.
func (e *Engine) checkPending(id int64, status string) error {
	if status != model.StatusPending {
		return ErrAlreadyResolved
	}
	if tx, ok := e.txs.Get(id); ok && !tx.IsPending() {
		return ErrAlreadyResolved
	}
	return nil
}

// resolve moves a pending request and its transaction to status. The remote
// update is conditioned on the version the request had before, so a
// concurrent resolution from another session shows up as a version
// conflict at the store.
func (e *Engine) resolve(collection string, id int64, status *string, version *int, target string) {
	prev := *version
	*status = target
	*version = prev + 1

	if err := e.txs.UpdateStatus(id, target); err != nil {
		e.log.Warn("request has no matching transaction", "collection", collection, "id", id, "error", err)
	}

	e.emit(
		model.NewUpdateEvent(collection,
			model.Filter{"id": id, "version": prev},
			model.Record{"status": target, "version": prev + 1}),
		model.NewUpdateEvent(model.CollectionTransactions,
			model.Filter{"id": id},
			model.Record{"status": target}),
	)
}
