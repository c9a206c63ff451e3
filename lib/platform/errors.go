package platform

import (
	"fmt"

	"emperror.dev/errors"
)

// ErrorKind distinguishes a failed round trip from an unwanted answer
type ErrorKind int

const (
	// KindTransport covers DNS, connection and timeout failures: no status was received
	KindTransport ErrorKind = iota
	// KindHTTPStatus covers responses whose status is not a success for the operation
	KindHTTPStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// RemoteError is returned by every Client operation that does not succeed
type RemoteError struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Kind == KindTransport {
		return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: status %d: %v: %s", e.Op, e.StatusCode, e.Err, e.Body)
	}
	return fmt.Sprintf("%s: %d - %s", e.Op, e.StatusCode, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Kind: KindTransport, Err: err}
}

func statusError(op string, status int, body string) *RemoteError {
	return &RemoteError{Op: op, Kind: KindHTTPStatus, StatusCode: status, Body: body}
}

// IsTransport reports whether err is a RemoteError raised before any status was received
func IsTransport(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.Kind == KindTransport
}

// IsHTTPStatus reports whether err is a RemoteError carrying an unexpected status
func IsHTTPStatus(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.Kind == KindHTTPStatus
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Kind == KindHTTPStatus {
		return remoteErr.StatusCode
	}
	return 0
}
