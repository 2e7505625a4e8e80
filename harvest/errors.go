package harvest

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig reports a missing account, email or password.
	ErrConfig = errors.New("harvest: configuration error")
	// ErrAuthConfig reports missing credentials. It also matches ErrConfig.
	ErrAuthConfig = fmt.Errorf("%w: no credentials configured", ErrConfig)
	// ErrInvalidDate is returned by DailyAdd for dates that cannot be parsed.
	ErrInvalidDate = errors.New("harvest: invalid date")
	// ErrParse reports a response body that is not well-formed XML.
	ErrParse = errors.New("harvest: error while parsing xml")
	// ErrDuplicateEntry matches every *DuplicateEntryError.
	ErrDuplicateEntry = errors.New("harvest: duplicate entry")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("harvest: transport error")
	// ErrStatus matches every *StatusError.
	ErrStatus = errors.New("harvest: unexpected status")
)

// DuplicateEntryError is returned when the server reports more than one
// entry with the same notes for the same project on the same day.
type DuplicateEntryError struct {
	Date      string
	ProjectID int64
	Notes     string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("found more than one entry with notes %q for project %d on %s", e.Notes, e.ProjectID, e.Date)
}

func (e *DuplicateEntryError) Is(target error) bool { return target == ErrDuplicateEntry }

// TransportError wraps a failure below the HTTP layer: connection refused,
// DNS failure, timeout or an unreadable response body.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError is returned for non-2xx responses when the client runs with
// StatusStrict.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: harvest API error %d: %s", e.Method, e.URL, e.StatusCode, string(e.Body))
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }
