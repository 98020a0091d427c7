package config

import "errors"

// ErrInvalidConfig classifies parameter validation failures. They are
// rejected before any GPU submission and never mutate stored state.
var ErrInvalidConfig = errors.New("invalid terrain config")
