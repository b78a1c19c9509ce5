package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionFull = errors.New("session is full")

	// Connection errors
	ErrShuttingDown = errors.New("server is shutting down")

	// Result errors
	ErrSummaryNotFound = errors.New("duel summary not found")
)
