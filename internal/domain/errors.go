package domain

import (
	"errors"
	"fmt"
)

var ErrMalformedPayload = errors.New("malformed payload")

// TransportError means a remote call did not complete: connectivity, timeout,
// non-2xx status or a body that could not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError means the remote call completed but the API reported a
// non-success status. Message is the server text, shown to the user as is.
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsApplication(err error) bool {
	var ae *ApplicationError
	return errors.As(err, &ae)
}
