package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrStatusConflict means the row no longer had the status the caller
	// based its decision on.
	ErrStatusConflict = errors.New("record status changed concurrently")
)
