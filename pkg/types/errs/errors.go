package errs

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrFileNotFound   = errors.New("file not found")

	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidState     = errors.New("invalid state")
	ErrExpired          = errors.New("request expired")
	ErrDuplicateRequest = errors.New("duplicate share request")
)
