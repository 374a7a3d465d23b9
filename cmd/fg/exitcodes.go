package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing config, no datasets, invalid values)
	ExitDataError   = 3 // Data error (unreadable or malformed dataset, duplicate ids)
	ExitNotFound    = 4 // Requested node or house does not exist
)
