package model

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. Email is the identity.
//
// Balance is in the smallest currency unit and is only ever written by the
// ledger (credit/debit/adjust); everything else reads it.
type User struct {
	Email          string `gorm:"type:varchar(191);primaryKey" json:"email" mapstructure:"email"`
	Name           string `gorm:"type:varchar(128);not null" json:"name" mapstructure:"name"`
	Role           string `gorm:"type:varchar(16);not null;default:user" json:"role" mapstructure:"role"`
	Balance        int64  `gorm:"not null;default:0" json:"balance" mapstructure:"balance"`
	TasksCompleted int    `gorm:"not null;default:0" json:"tasks_completed" mapstructure:"tasks_completed"`
}

func (User) TableName() string {
	return CollectionUsers
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) Record() Record {
	return Record{
		"email":           u.Email,
		"name":            u.Name,
		"role":            u.Role,
		"balance":         u.Balance,
		"tasks_completed": u.TasksCompleted,
	}
}

// SessionSnapshot is what gets persisted for the active user between process
// starts.
type SessionSnapshot struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Balance        int64  `json:"balance"`
	TasksCompleted int    `json:"tasks_completed"`
}

func (u User) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		Balance:        u.Balance,
		TasksCompleted: u.TasksCompleted,
	}
}
