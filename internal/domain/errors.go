package domain

import "errors"

// Kind buckets errors into the categories callers act on.
type Kind string

const (
	KindNone              Kind = ""
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindRateLimited       Kind = "rate_limited"
	KindPartialWrite      Kind = "partial_write"
	KindStoreUnavailable  Kind = "store_unavailable"
	KindInternal          Kind = "internal"
)

var (
	// ErrNotFound is the parent of every "entity absent" error.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is the parent of every rejected state change.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrRateLimited marks an action dropped by the cooldown gate.
	ErrRateLimited = errors.New("rate limited")
	// ErrPartialWrite reports that some participant stat updates failed.
	ErrPartialWrite = errors.New("partial write failure")
	// ErrStoreUnavailable wraps transport failures of external stores.
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	ErrSessionNotFound     = kindError{msg: "quiz session not found", parent: ErrNotFound}
	ErrTopicNotFound       = kindError{msg: "topic not found", parent: ErrNotFound}
	ErrUserNotFound        = kindError{msg: "user not found", parent: ErrNotFound}
	ErrParticipantNotFound = kindError{msg: "participant not found in quiz", parent: ErrNotFound}

	ErrNotCreator         = kindError{msg: "only the quiz creator can do that", parent: ErrInvalidTransition}
	ErrInvalidSetting     = kindError{msg: "setting value not allowed", parent: ErrInvalidTransition}
	ErrNotOpen            = kindError{msg: "quiz already started", parent: ErrInvalidTransition}
	ErrNotRunning         = kindError{msg: "quiz is not running", parent: ErrInvalidTransition}
	ErrNoParticipants     = kindError{msg: "quiz has no participants", parent: ErrInvalidTransition}
	ErrNotEnoughQuestions = kindError{msg: "topic has too few approved questions", parent: ErrInvalidTransition}
	ErrOptionNotFound     = kindError{msg: "option not found", parent: ErrInvalidTransition}
	ErrUnknownAction      = kindError{msg: "unsupported action", parent: ErrInvalidTransition}
)

// kindError is a sentinel that also matches its taxonomy parent with errors.Is.
type kindError struct {
	msg    string
	parent error
}

func (e kindError) Error() string { return e.msg }

func (e kindError) Unwrap() error { return e.parent }

// KindOf classifies err.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrPartialWrite):
		return KindPartialWrite
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	default:
		return KindInternal
	}
}
