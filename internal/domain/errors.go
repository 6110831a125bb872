package domain

import "errors"

var (
	// ErrNotFound is returned when no archived summary satisfies the query.
	ErrNotFound = errors.New("not found")

	// ErrUnknownChannel is returned for channel names that were never registered.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrInvalidTransition is returned when a session is asked to move to a
	// state its current state does not lead to.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrSessionNotStarted is returned for operations that need a scheduled session.
	ErrSessionNotStarted = errors.New("session not started")

	// ErrDiagnosisPending is returned while a channel has not produced its summary yet.
	ErrDiagnosisPending = errors.New("diagnosis not available yet")

	// ErrAlreadyShown is returned when a diagnosis region is written twice.
	ErrAlreadyShown = errors.New("diagnosis region already shown")

	ErrInvalidConfig = errors.New("invalid configuration")
)
