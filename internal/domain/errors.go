package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("case record not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrServer           = errors.New("server error")
	ErrTimeout          = errors.New("request timed out")
	ErrTransport        = errors.New("transport failure")
	ErrDecode           = errors.New("response decode failed")
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrProfileNotFound  = errors.New("profile not found")
)

// RemoteError is the terminal outcome of a remote call. Category is always
// one of the sentinel errors above, so callers select on it with errors.Is
// instead of matching status codes.
type RemoteError struct {
	Category error
	Op       string
	Status   int
	Err      error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v (status %d): %v", e.Op, e.Category, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Category, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Category, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Category)
	}
}

func (e *RemoteError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Category, e.Err}
	}
	return []error{e.Category}
}

func NewRemoteError(category error, op string, status int, err error) *RemoteError {
	return &RemoteError{Category: category, Op: op, Status: status, Err: err}
}
