package model

import "errors"

// Error sentinels for the exam core. Handlers map these to HTTP statuses
// with errors.Is; everything else is a 500.
var (
	// ErrNoDataDir means no exam data directory exists among the
	// configured candidates. Exam routes are unavailable until resolved;
	// process liveness is unaffected.
	ErrNoDataDir = errors.New("no exam data directory found")

	// ErrSetNotFound means the requested question set is not in the catalog.
	ErrSetNotFound = errors.New("question set not found")

	// ErrNoSession means the caller has no active (or unexpired) exam session.
	ErrNoSession = errors.New("no active exam session")

	// ErrInvalidChoice means the submitted option index is out of range
	// for the current question. Session state is left unchanged.
	ErrInvalidChoice = errors.New("invalid answer choice")

	// ErrExamCompleted means a mutation was attempted on a completed session.
	ErrExamCompleted = errors.New("exam already completed")

	// ErrExamInProgress means the result was requested before the last
	// question was answered.
	ErrExamInProgress = errors.New("exam still in progress")
)
