package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no repository, bad config, missing credentials)
	ExitDataError   = 3 // Data error (chapter without an ordering key, malformed chapter log)
)
