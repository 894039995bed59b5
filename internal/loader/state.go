package loader

import (
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type Status int

const (
	StatusNotStarted Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsSettled reports whether a fetch has finished, successfully or not.
func (s Status) IsSettled() bool {
	return s == StatusLoaded || s == StatusFailed
}

type FailureKind int

const (
	// FailureTransport: the call could not complete or its payload was unusable.
	FailureTransport FailureKind = iota
	// FailureApplication: the API answered with a non-success status.
	FailureApplication
)

func (k FailureKind) String() string {
	if k == FailureApplication {
		return "application"
	}
	return "transport"
}

func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// TransportMessage is what the user sees for any transport failure.
const TransportMessage = "could not reach the server, please try again"

type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Retryable is always true: nothing a loader reports is fatal.
func (f *Failure) Retryable() bool {
	return true
}

// Classify maps a fetch error onto a Failure. Application failures keep the
// server message verbatim; everything else is treated as a transport failure.
func Classify(err error) *Failure {
	var appErr *domain.ApplicationError
	if errors.As(err, &appErr) {
		return &Failure{Kind: FailureApplication, Message: appErr.Message, Err: err}
	}
	return &Failure{Kind: FailureTransport, Message: TransportMessage, Err: err}
}

// State is a snapshot of a loader. Value is only meaningful when Loaded and
// Failure only when Failed.
type State[T any] struct {
	Status  Status
	Value   T
	Failure *Failure
}

func (s State[T]) Loaded() (T, bool) {
	return s.Value, s.Status == StatusLoaded
}
