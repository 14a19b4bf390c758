package services

import "errors"

// Protocol errors, sent to the offending connection as {"error": "..."}.
// Precondition mismatches (wrong state, wrong role, stale answers) are
// silently ignored instead and have no error value here.
var (
	ErrBadJSON         = errors.New("bad json")
	ErrUnknownType     = errors.New("unknown type")
	ErrGameExists      = errors.New("game already exists")
	ErrInvalidQuestion = errors.New("invalid question")
	ErrNoQuestions     = errors.New("no questions")
	ErrNotAccepting    = errors.New("not accepting players")
	ErrInvalidJoin     = errors.New("invalid join")
)
