package memo

import "errors"

// Sentinel errors for database operations.
var (
	ErrAlreadyExists = errors.New("document already exists")
	ErrNotFound      = errors.New("document not found")
	ErrLoadFailed    = errors.New("load failed")
	ErrSaveFailed    = errors.New("save failed")
	ErrEncodeFailed  = errors.New("encode failed")
	ErrEmptyPath     = errors.New("database path is empty")
)
