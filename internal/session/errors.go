package session

import "errors"

// Error kinds surfaced by the session manager. Callers branch with
// errors.Is; the wrapped message carries the underlying transport detail.
var (
	// ErrInvalidRequest means a connect request was missing a required
	// field. No transport call is attempted.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConnectionFailed wraps a transport error during connect. The
	// session is left empty.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotConnected means an operation required an active session.
	ErrNotConnected = errors.New("no device connected")

	// ErrWrongTransport means the operation is only meaningful on another
	// transport kind (enabling the TCP listener requires a USB session).
	ErrWrongTransport = errors.New("wrong transport")

	// ErrCommandFailed wraps a transport error during shell dispatch or
	// file transfer. The session state is unchanged; the caller may retry
	// or disconnect.
	ErrCommandFailed = errors.New("command failed")

	// ErrParse means a state query returned output that did not match the
	// expected text format. The raw output is included for diagnosis.
	ErrParse = errors.New("unexpected device output")
)
