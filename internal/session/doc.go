// Package session owns the single device connection.
//
// At most one handle is live at any time. Connect is close-then-open: an
// existing handle is always released before a new one is acquired, and a
// failed connect leaves the session empty. All operations are serialized
// behind one mutex; USB handles additionally dispatch through a dedicated
// worker goroutine because the underlying transport blocks on device I/O,
// while network handles execute calls directly.
//
// The manager performs no retries and exposes no cancellation beyond the
// context handed to the transport: the device's ADB session is stateful and
// single-owner, so every failure is surfaced to the caller, who decides
// whether to retry, reconnect, or abort.
package session
