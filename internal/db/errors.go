package db

import "errors"

var (
	ErrNotFound  = errors.New("db: record not found")
	ErrDuplicate = errors.New("db: duplicate record")
)
