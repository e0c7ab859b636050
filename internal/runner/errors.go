package runner

import "errors"

var (
	ErrNoInstances       = errors.New("no tree instances to run")
	ErrDuplicateInstance = errors.New("instance id already in use")
	ErrInvalidInterval   = errors.New("tick interval must be positive")
	ErrInstancePanic     = errors.New("tree instance panicked")
)
