package ledger

import (
	"errors"
	"fmt"
	"sync"

	"rewardhub/internal/metrics"
	"rewardhub/internal/repository"
)

var (
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Ledger owns User.Balance. It does not write transactions; every caller
// pairs a balance change with its own log entry.
type Ledger struct {
	mu    sync.Mutex
	users repository.UserRepository
}

func New(users repository.UserRepository) *Ledger {
	return &Ledger{users: users}
}

func (l *Ledger) Balance(email string) (int64, error) {
	u, err := l.users.Get(email)
	if err != nil {
		return 0, err
	}
	return u.Balance, nil
}

func (l *Ledger) Credit(email string, amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	u, err := l.users.Get(email)
	if err != nil {
		return err
	}
	u.Balance += amount
	if err := l.users.Save(u); err != nil {
		return fmt.Errorf("credit %s: %w", email, err)
	}
	metrics.RecordLedger("credit", metrics.ResultOK)
	return nil
}

// Debit returns false without touching the balance when amount exceeds it.
func (l *Ledger) Debit(email string, amount int64) (bool, error) {
	if amount < 0 {
		return false, ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	u, err := l.users.Get(email)
	if err != nil {
		return false, err
	}
	if amount > u.Balance {
		metrics.RecordLedger("debit", metrics.ResultRefused)
		return false, nil
	}
	u.Balance -= amount
	if err := l.users.Save(u); err != nil {
		return false, fmt.Errorf("debit %s: %w", email, err)
	}
	metrics.RecordLedger("debit", metrics.ResultOK)
	return true, nil
}

// Adjust adds delta (which may be negative) and returns the new balance. The
// balance never goes below zero.
func (l *Ledger) Adjust(email string, delta int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, err := l.users.Get(email)
	if err != nil {
		return 0, err
	}
	if u.Balance+delta < 0 {
		metrics.RecordLedger("adjust", metrics.ResultRefused)
		return u.Balance, ErrInsufficientBalance
	}
	u.Balance += delta
	if err := l.users.Save(u); err != nil {
		return 0, fmt.Errorf("adjust %s: %w", email, err)
	}
	metrics.RecordLedger("adjust", metrics.ResultOK)
	return u.Balance, nil
}
