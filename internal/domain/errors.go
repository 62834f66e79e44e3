package domain

import "errors"

var (
	// ErrInvalidArgument is returned for bad caller input. It is never
	// retried and is surfaced before any I/O happens.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConnectionExhausted is returned after the store used up its
	// connection attempts; it wraps the last underlying failure.
	ErrConnectionExhausted = errors.New("connection attempts exhausted")
	// ErrSchemaMismatch indicates the questions table is missing or its
	// columns do not match what the store expects.
	ErrSchemaMismatch = errors.New("question store schema mismatch")
	// ErrNoQuestions means the store was reachable but produced zero
	// usable question records.
	ErrNoQuestions = errors.New("no questions available")
	// ErrInvalidState signals an illegal transition on the session
	// state machine, e.g. submitting after completion.
	ErrInvalidState = errors.New("invalid session state")
	// ErrCorruptQuestion flags a question whose correct answer is not
	// among its options; this is a contract violation upstream.
	ErrCorruptQuestion = errors.New("correct answer not present in options")
)
