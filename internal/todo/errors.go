package todo

import "errors"

// Common errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidItem   = errors.New("invalid item")
	ErrInvalidList   = errors.New("invalid list")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrDuplicateList = errors.New("list already exists")
	ErrListNotEmpty  = errors.New("list is not empty")
	ErrUnknownList   = errors.New("unknown list")
)
