package network

import "errors"

// Loader errors.
var (
	ErrNoDatasets   = errors.New("at least one dataset is required")
	ErrDuplicateID  = errors.New("duplicate node id")
	ErrNodeNotFound = errors.New("node not found")
)
