package credit

import "errors"

var (
	ErrNotFound     = errors.New("credit profile not found")
	ErrInvalidInput = errors.New("invalid input")
)
