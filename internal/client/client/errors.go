package client

import (
	"errors"

	"google.golang.org/grpc/codes"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// RejectedError is a request the server refused; Reason is meant for the user.
type RejectedError struct {
	Code   codes.Code
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}
