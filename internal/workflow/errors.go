package workflow

import (
	"errors"

	"rewardhub/internal/ledger"
	"rewardhub/internal/repository"
	"rewardhub/internal/txlog"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
	ErrAlreadyResolved     = txlog.ErrAlreadyResolved
	ErrRequestNotFound     = errors.New("request not found")
	ErrUserNotFound        = repository.ErrUserNotFound
	ErrUserExists          = errors.New("user already registered")
	ErrInvalidUser         = errors.New("email and name are required")
	ErrTaskNotFound        = errors.New("task not found")
	ErrInvalidTask         = errors.New("task title is required and reward must not be negative")
	ErrInvalidAnnouncement = errors.New("announcement title is required")
	ErrInvalidDestination  = errors.New("bank and account are required")
	ErrInvalidTarget       = errors.New("game, package and game account id are required")
)
