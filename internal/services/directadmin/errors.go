package directadmin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrStillExists is returned when a verification read finds an entity that
// should have been removed.
var ErrStillExists = errors.New("entity still exists on the panel")

// TransportError is a network-level failure talking to the panel.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("directadmin %s: transport failure: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was the request timeout firing.
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// RemoteError is an error the panel reported in its response body.
type RemoteError struct {
	Command    string
	Code       string // value of the "error" field
	Message    string // "text" field, verbatim when present
	Details    string // "details" field
	StatusCode int
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("directadmin %s: %s", e.Command, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// UnexpectedHTMLError means the panel answered an API call with an HTML page,
// usually its login or error screen.
type UnexpectedHTMLError struct {
	Command string
	Title   string
}

func (e *UnexpectedHTMLError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("directadmin %s: unexpected HTML response", e.Command)
	}
	return fmt.Sprintf("directadmin %s: unexpected HTML response (%s)", e.Command, e.Title)
}

// UnexpectedBodyError means the panel answered with text that is neither a
// query string, JSON nor an HTML page, such as a bare error sentence or an
// HTML fragment.
type UnexpectedBodyError struct {
	Command string
	Body    string // leading part of the body
}

func (e *UnexpectedBodyError) Error() string {
	return fmt.Sprintf("directadmin %s: unexpected response body: %q", e.Command, e.Body)
}

// NotFoundError means the entity is absent on the panel.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// AlreadyExistsError means a create was refused because the name is taken.
type AlreadyExistsError struct {
	Kind string
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// IsNotFound reports whether err means the entity is absent.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAlreadyExists reports whether err is a duplicate-name refusal.
func IsAlreadyExists(err error) bool {
	var ae *AlreadyExistsError
	return errors.As(err, &ae)
}

// IsSuccessSentinel reports whether err is a RemoteError whose code is the
// panel's "0" no-error value. Such errors are successes.
func IsSuccessSentinel(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return strings.TrimSpace(re.Code) == "0"
	}
	return false
}

// IgnoreSuccessSentinel maps the "0" sentinel to nil and leaves other errors alone.
func IgnoreSuccessSentinel(err error) error {
	if IsSuccessSentinel(err) {
		return nil
	}
	return err
}

// IsRetryable reports whether err is worth retrying on operations the panel
// is known to be flaky for. Cancellation, absence and duplicates are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if IsNotFound(err) || IsAlreadyExists(err) {
		return false
	}
	return true
}

// IsConnectionReset reports whether err is a TCP connection reset.
func IsConnectionReset(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection reset")
}
