package service

import (
	"errors"
	"fmt"
)

// Summary failure kinds. Match with errors.Is.
var (
	ErrInvalidPayload     = errors.New("invalid_payload")
	ErrMissingCredentials = errors.New("missing_credentials")
	ErrTimeout            = errors.New("timeout")
	ErrUpstream           = errors.New("upstream")
	ErrTransport          = errors.New("transport")
	ErrEmptyResponse      = errors.New("empty_response")
	ErrMalformedResponse  = errors.New("malformed_response")
	ErrIncompleteResult   = errors.New("incomplete_result")
	ErrCancelled          = errors.New("cancelled")
)

var kinds = []error{
	ErrInvalidPayload, ErrMissingCredentials, ErrTimeout, ErrUpstream, ErrTransport,
	ErrEmptyResponse, ErrMalformedResponse, ErrIncompleteResult, ErrCancelled,
}

// errSummaryTimeout is the cancel cause set by the summarize deadline
var errSummaryTimeout = errors.New("summary deadline exceeded")

// SummaryError is the typed failure returned by Summarize
type SummaryError struct {
	Kind       error
	Message    string
	Details    string
	TimeoutMS  int
	RawContent string
	Cause      error
}

func (e *SummaryError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *SummaryError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, message string) *SummaryError {
	return &SummaryError{Kind: kind, Message: message}
}

// KindOf returns the wire name of err's kind ("timeout", "upstream", ...).
// Errors that carry no known kind report "transport".
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return ErrTransport.Error()
}

// AsSummaryError unwraps err into a *SummaryError, wrapping unknown errors
// as transport failures
func AsSummaryError(err error) *SummaryError {
	var se *SummaryError
	if errors.As(err, &se) {
		return se
	}
	return &SummaryError{Kind: ErrTransport, Message: "Server error while summarizing.", Details: err.Error(), Cause: err}
}
