package domain

import "errors"

var (
	// ErrQuizIDRequired is returned when a quiz-scope load is requested without an id.
	ErrQuizIDRequired = errors.New("quiz id required")
	// ErrGroupIDRequired is returned when a group-scope load is requested without an id.
	ErrGroupIDRequired = errors.New("group id required")
	// ErrBackendRejected indicates the backend answered with success=false.
	ErrBackendRejected = errors.New("backend rejected request")
	// ErrNotConnected is returned when a signal is emitted with no open connection.
	ErrNotConnected = errors.New("push channel not connected")
	// ErrQuizNotFound indicates an unknown quiz id in the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrGroupNotFound indicates an unknown group id in the catalog.
	ErrGroupNotFound = errors.New("group not found")
)
