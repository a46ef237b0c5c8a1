package borrowers

import "errors"

var (
	ErrNotFound     = errors.New("borrower not found")
	ErrInvalidInput = errors.New("invalid input")
)
