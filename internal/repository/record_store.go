package repository

import (
	"context"

	"gorm.io/gorm"

	"rewardhub/internal/model"
)

// RecordStore is the remote copy of every collection. Operations are
// per-record; there are no multi-record transactions.
type RecordStore interface {
	Select(ctx context.Context, collection string, filter model.Filter) ([]model.Record, error)
	Insert(ctx context.Context, collection string, rec model.Record) error
	// Update applies patch to every row matching match and returns the number
	// of rows changed. If match carries a "version" condition and nothing
	// matched, it returns ErrVersionConflict.
	Update(ctx context.Context, collection string, match model.Filter, patch model.Record) (int64, error)
	// UpdateAll applies patch to every row of the collection in one write.
	UpdateAll(ctx context.Context, collection string, patch model.Record) (int64, error)
	Delete(ctx context.Context, collection string, match model.Filter) error
}

type recorder interface {
	Record() model.Record
}

// table describes how one collection maps onto a gorm model.
type table struct {
	primaryKey string
	model      func() interface{}
	find       func(db *gorm.DB) ([]model.Record, error)
}

func tableOf[T recorder](primaryKey string) table {
	return table{
		primaryKey: primaryKey,
		model:      func() interface{} { return new(T) },
		find: func(db *gorm.DB) ([]model.Record, error) {
			var rows []T
			if err := db.Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]model.Record, 0, len(rows))
			for _, r := range rows {
				out = append(out, r.Record())
			}
			return out, nil
		},
	}
}

var tables = map[string]table{
	model.CollectionUsers:         tableOf[model.User]("email"),
	model.CollectionTasks:         tableOf[model.Task]("id"),
	model.CollectionTransactions:  tableOf[model.Transaction]("id"),
	model.CollectionWithdrawals:   tableOf[model.WithdrawalRequest]("id"),
	model.CollectionDeposits:      tableOf[model.DepositRequest]("id"),
	model.CollectionAnnouncements: tableOf[model.Announcement]("id"),
}

func lookup(collection string) (table, error) {
	t, ok := tables[collection]
	if !ok {
		return table{}, ErrUnknownCollection
	}
	return t, nil
}

// Models returns one zero value per collection, for schema migration.
func Models() []interface{} {
	out := make([]interface{}, 0, len(model.Collections))
	for _, c := range model.Collections {
		out = append(out, tables[c].model())
	}
	return out
}

func isVersioned(match model.Filter) bool {
	_, ok := match["version"]
	return ok
}
