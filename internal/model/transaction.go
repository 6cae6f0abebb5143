package model

import (
	"time"
)

// ============================================================================
// Transaction kinds and statuses
// ============================================================================

const (
	KindTask     = "task"
	KindWithdraw = "withdraw"
	KindTopup    = "topup"
)

const (
	StatusPending  = "pending"
	StatusSuccess  = "success"
	StatusRejected = "rejected"
)

// ValidStatusTransitions is shared by transactions and requests. Both terminal
// states have no outgoing edge, so a resolution can never be reversed or
// re-enter pending.
var ValidStatusTransitions = map[string][]string{
	StatusPending: {StatusSuccess, StatusRejected},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidStatusTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

func IsValidKind(kind string) bool {
	return kind == KindTask || kind == KindWithdraw || kind == KindTopup
}

func IsValidStatus(status string) bool {
	return status == StatusPending || status == StatusSuccess || status == StatusRejected
}

// ============================================================================
// Transaction
// ============================================================================

// Transaction is one monetary event in a user's history.
//
// Amount is signed: positive is a credit, negative a debit. Only Status may
// change after creation, and only once.
type Transaction struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id" mapstructure:"id"`
	Kind      string    `gorm:"type:varchar(16);index;not null" json:"kind" mapstructure:"kind"`
	Title     string    `gorm:"type:varchar(256);not null" json:"title" mapstructure:"title"`
	Amount    int64     `gorm:"not null" json:"amount" mapstructure:"amount"`
	Status    string    `gorm:"type:varchar(16);index;not null" json:"status" mapstructure:"status"`
	UserEmail string    `gorm:"type:varchar(191);index;not null" json:"user_email" mapstructure:"user_email"`
	CreatedAt time.Time `gorm:"not null" json:"created_at" mapstructure:"created_at"`
}

func (Transaction) TableName() string {
	return CollectionTransactions
}

func (t Transaction) IsPending() bool {
	return t.Status == StatusPending
}

func (t Transaction) Record() Record {
	return Record{
		"id":         t.ID,
		"kind":       t.Kind,
		"title":      t.Title,
		"amount":     t.Amount,
		"status":     t.Status,
		"user_email": t.UserEmail,
		"created_at": t.CreatedAt,
	}
}
