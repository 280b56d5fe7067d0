package commerce

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// RemoteError indicates the commerce service rejected a request with a
// structured reason. Status carries the remote HTTP status verbatim and
// Detail holds the service's detail payload, when one was returned.
type RemoteError struct {
	Op     string
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("commerce %s: remote rejected with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("commerce %s: remote rejected with status %d: %s", e.Op, e.Status, e.Detail)
}

// NotFound reports whether the remote rejection was a 404-equivalent,
// e.g. an unknown cart identifier.
func (e *RemoteError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// TransportError indicates a request could not complete at all: the service
// was unreachable, the call timed out, or the response body could not be
// decoded. Potentially transient; callers may offer a manual retry.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("commerce %s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRemoteRejected reports whether err is classified as a remote rejection.
func IsRemoteRejected(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsTransportFailure reports whether err is classified as a transport failure.
func IsTransportFailure(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
