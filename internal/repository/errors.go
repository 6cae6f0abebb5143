package repository

import (
	"errors"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrVersionConflict   = errors.New("version conflict: record was changed by another session")
	ErrMissingMatch      = errors.New("update and delete require a non-empty match")
	ErrMissingPrimaryKey = errors.New("record has no primary key")
)
