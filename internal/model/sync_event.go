package model

import (
	"time"
)

const (
	CollectionUsers         = "users"
	CollectionTasks         = "tasks"
	CollectionTransactions  = "transactions"
	CollectionWithdrawals   = "withdrawals"
	CollectionDeposits      = "deposits"
	CollectionAnnouncements = "announcements"
)

// Collections lists every collection the remote store holds, in the order
// they are loaded on startup.
var Collections = []string{
	CollectionUsers,
	CollectionTasks,
	CollectionTransactions,
	CollectionWithdrawals,
	CollectionDeposits,
	CollectionAnnouncements,
}

// Record is one row of a remote collection, keyed by column name.
type Record map[string]interface{}

// Filter is a set of column equality conditions. An empty Filter matches
// every row.
type Filter map[string]interface{}

const (
	SyncOpInsert = "insert"
	SyncOpUpdate = "update"
	SyncOpDelete = "delete"
)

// SyncEvent is a local mutation waiting to be mirrored to the remote store.
//
// Insert uses Record. Update uses Match and Record (the patch). Delete uses
// Match only.
type SyncEvent struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	Match      Filter    `json:"match,omitempty"`
	Record     Record    `json:"record,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Key returns a stable message key for the event, used for partitioning on
// the mirror feed.
func (e SyncEvent) Key() string {
	for _, col := range []string{"id", "email"} {
		if v, ok := e.Match[col]; ok {
			return e.Collection + ":" + toString(v)
		}
		if v, ok := e.Record[col]; ok {
			return e.Collection + ":" + toString(v)
		}
	}
	return e.Collection
}

func NewInsertEvent(collection string, rec Record) SyncEvent {
	return SyncEvent{Collection: collection, Op: SyncOpInsert, Record: rec, CreatedAt: time.Now()}
}

func NewUpdateEvent(collection string, match Filter, patch Record) SyncEvent {
	return SyncEvent{Collection: collection, Op: SyncOpUpdate, Match: match, Record: patch, CreatedAt: time.Now()}
}

func NewDeleteEvent(collection string, match Filter) SyncEvent {
	return SyncEvent{Collection: collection, Op: SyncOpDelete, Match: match, CreatedAt: time.Now()}
}
