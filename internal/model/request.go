package model

import (
	"time"
)

// WithdrawalRequest shares its ID with the pending withdraw Transaction that
// was appended when it was created. Amount is positive; the matching
// transaction carries -Amount.
//
// Version is bumped on every local resolution and the remote update is
// conditioned on the previous value, so a second session resolving the same
// request is detected instead of silently overwriting.
type WithdrawalRequest struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id" mapstructure:"id"`
	UserEmail string    `gorm:"type:varchar(191);index;not null" json:"user_email" mapstructure:"user_email"`
	Amount    int64     `gorm:"not null" json:"amount" mapstructure:"amount"`
	Bank      string    `gorm:"type:varchar(64);not null" json:"bank" mapstructure:"bank"`
	Account   string    `gorm:"type:varchar(64);not null" json:"account" mapstructure:"account"`
	Status    string    `gorm:"type:varchar(16);index;not null" json:"status" mapstructure:"status"`
	Version   int       `gorm:"not null;default:0" json:"version" mapstructure:"version"`
	CreatedAt time.Time `gorm:"not null" json:"created_at" mapstructure:"created_at"`
}

func (WithdrawalRequest) TableName() string {
	return CollectionWithdrawals
}

func (w WithdrawalRequest) Record() Record {
	return Record{
		"id":         w.ID,
		"user_email": w.UserEmail,
		"amount":     w.Amount,
		"bank":       w.Bank,
		"account":    w.Account,
		"status":     w.Status,
		"version":    w.Version,
		"created_at": w.CreatedAt,
	}
}

// DepositRequest is a game top-up. The amount is paid outside this system,
// so it never touches the ledger.
type DepositRequest struct {
	ID            int64     `gorm:"primaryKey;autoIncrement:false" json:"id" mapstructure:"id"`
	UserEmail     string    `gorm:"type:varchar(191);index;not null" json:"user_email" mapstructure:"user_email"`
	Amount        int64     `gorm:"not null" json:"amount" mapstructure:"amount"`
	Game          string    `gorm:"type:varchar(64);not null" json:"game" mapstructure:"game"`
	PackageName   string    `gorm:"type:varchar(128);not null" json:"package_name" mapstructure:"package_name"`
	GameAccountID string    `gorm:"type:varchar(128);not null" json:"game_account_id" mapstructure:"game_account_id"`
	Status        string    `gorm:"type:varchar(16);index;not null" json:"status" mapstructure:"status"`
	Version       int       `gorm:"not null;default:0" json:"version" mapstructure:"version"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at" mapstructure:"created_at"`
}

func (DepositRequest) TableName() string {
	return CollectionDeposits
}

func (d DepositRequest) Record() Record {
	return Record{
		"id":              d.ID,
		"user_email":      d.UserEmail,
		"amount":          d.Amount,
		"game":            d.Game,
		"package_name":    d.PackageName,
		"game_account_id": d.GameAccountID,
		"status":          d.Status,
		"version":         d.Version,
		"created_at":      d.CreatedAt,
	}
}
