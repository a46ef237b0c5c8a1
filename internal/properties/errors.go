package properties

import "errors"

var (
	ErrNotFound     = errors.New("property not found")
	ErrInvalidInput = errors.New("invalid input")
)
