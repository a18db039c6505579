package session

import (
	"errors"
	"strings"

	"github.com/cleared-dev/estatement/internal/query"
)

var (
	// ErrInvalidCriteria marks a search the controller refused to run.
	ErrInvalidCriteria = errors.New("invalid search criteria")
	// ErrTransport marks a failed call to the dataset source or exporter.
	ErrTransport = errors.New("transport failure")
	// ErrClosed is returned by collaborator calls after Close.
	ErrClosed = errors.New("session closed")
)

// CriteriaError lists the rejected parameters of a search.
type CriteriaError struct {
	Errors []query.ValidationError
}

func (e *CriteriaError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, ", ")
}

func (e *CriteriaError) Is(target error) bool {
	return target == ErrInvalidCriteria
}

// TransportError wraps a collaborator failure behind a generic message.
// The underlying error stays reachable through errors.Is and errors.As.
type TransportError struct {
	Op          string
	UserMessage string
	Err         error
}

func (e *TransportError) Error() string {
	return e.UserMessage
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

func transportError(op string, err error) *TransportError {
	msg := "Failed to load transactions"
	if op == "export" {
		msg = "Failed to export transactions"
	}
	return &TransportError{Op: op, UserMessage: msg, Err: err}
}
