package model

import (
	"time"
)

// Task is an entry of the admin-managed task catalog.
type Task struct {
	ID        string `gorm:"type:varchar(32);primaryKey" json:"id" mapstructure:"id"`
	Title     string `gorm:"type:varchar(256);not null" json:"title" mapstructure:"title"`
	Reward    int64  `gorm:"not null" json:"reward" mapstructure:"reward"`
	Progress  int    `gorm:"not null;default:0" json:"progress" mapstructure:"progress"`
	Total     int    `gorm:"not null;default:1" json:"total" mapstructure:"total"`
	IsHot     bool   `gorm:"not null;default:false" json:"is_hot" mapstructure:"is_hot"`
	TargetURL string `gorm:"type:varchar(512)" json:"target_url" mapstructure:"target_url"`
}

func (Task) TableName() string {
	return CollectionTasks
}

func (t Task) Record() Record {
	return Record{
		"id":         t.ID,
		"title":      t.Title,
		"reward":     t.Reward,
		"progress":   t.Progress,
		"total":      t.Total,
		"is_hot":     t.IsHot,
		"target_url": t.TargetURL,
	}
}

// Announcement is broadcast by an admin. There is no deletion path.
type Announcement struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id" mapstructure:"id"`
	Title     string    `gorm:"type:varchar(256);not null" json:"title" mapstructure:"title"`
	Body      string    `gorm:"type:text;not null" json:"body" mapstructure:"body"`
	CreatedAt time.Time `gorm:"not null" json:"created_at" mapstructure:"created_at"`
}

func (Announcement) TableName() string {
	return CollectionAnnouncements
}

func (a Announcement) Record() Record {
	return Record{
		"id":         a.ID,
		"title":      a.Title,
		"body":       a.Body,
		"created_at": a.CreatedAt,
	}
}
