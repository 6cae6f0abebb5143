package workflow

import (
	"fmt"
	"strings"

	"rewardhub/internal/model"
	"rewardhub/internal/notify"
)

// RegisterUser creates a regular user with a zero balance.
func (e *Engine) RegisterUser(email, name string) (model.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return model.User{}, ErrInvalidUser
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.users.Exists(email) {
		return model.User{}, ErrUserExists
	}
	u := model.User{Email: email, Name: name, Role: model.RoleUser}
	if err := e.users.Save(u); err != nil {
		return model.User{}, fmt.Errorf("register %s: %w", email, err)
	}

	e.emit(model.NewInsertEvent(model.CollectionUsers, u.Record()))

	e.notifier.Notify("Đăng ký thành công", notify.Success)
	e.log.Info("user registered", "email", email)
	return u, nil
}

// DeleteUser removes the user from the registry. Their transactions and
// requests stay.
func (e *Engine) DeleteUser(email string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.users.Delete(email); err != nil {
		return err
	}

	e.emit(model.NewDeleteEvent(model.CollectionUsers, model.Filter{"email": email}))
	if e.observer != nil {
		e.observer.UserDeleted(email)
	}

	e.notifier.Notify(fmt.Sprintf("Đã xóa người dùng %s", email), notify.Success)
	e.log.Info("user deleted", "email", email)
	return nil
}

// AdjustBalance applies an administrative correction. It is not written to
// the transaction log.
func (e *Engine) AdjustBalance(email string, delta int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bal, err := e.ledger.Adjust(email, delta)
	if err != nil {
		return bal, err
	}

	e.emit(e.balanceEvent(email, nil))
	e.userChanged(email)

	e.notifier.Notify(fmt.Sprintf("Đã cập nhật số dư %s: %d", email, bal), notify.Success)
	e.log.Info("balance adjusted", "email", email, "delta", delta, "balance", bal)
	return bal, nil
}
