package repository

import (
	"context"

	"gorm.io/gorm"

	"rewardhub/internal/model"
)

// GormStore keeps the remote collections in MySQL, one table per collection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Select(ctx context.Context, collection string, filter model.Filter) ([]model.Record, error) {
	t, err := lookup(collection)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Table(collection)
	if len(filter) > 0 {
		q = q.Where(map[string]interface{}(filter))
	}
	return t.find(q)
}

func (s *GormStore) Insert(ctx context.Context, collection string, rec model.Record) error {
	if _, err := lookup(collection); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Table(collection).Create(map[string]interface{}(rec)).Error
}

func (s *GormStore) Update(ctx context.Context, collection string, match model.Filter, patch model.Record) (int64, error) {
	if _, err := lookup(collection); err != nil {
		return 0, err
	}
	if len(match) == 0 {
		return 0, ErrMissingMatch
	}

	result := s.db.WithContext(ctx).
		Table(collection).
		Where(map[string]interface{}(match)).
		Updates(map[string]interface{}(patch))

	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected == 0 && isVersioned(match) {
		return 0, ErrVersionConflict
	}

	return result.RowsAffected, nil
}

func (s *GormStore) UpdateAll(ctx context.Context, collection string, patch model.Record) (int64, error) {
	if _, err := lookup(collection); err != nil {
		return 0, err
	}

	result := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Table(collection).
		Updates(map[string]interface{}(patch))

	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (s *GormStore) Delete(ctx context.Context, collection string, match model.Filter) error {
	t, err := lookup(collection)
	if err != nil {
		return err
	}
	if len(match) == 0 {
		return ErrMissingMatch
	}
	return s.db.WithContext(ctx).
		Table(collection).
		Where(map[string]interface{}(match)).
		Delete(t.model()).Error
}
