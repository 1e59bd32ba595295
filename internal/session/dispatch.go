package session

import "context"

// dispatcher is the per-transport execution strategy. USB transport calls
// block on device I/O at the library level, so they are funneled through a
// single worker goroutine; network calls may run directly on the caller.
type dispatcher interface {
	do(ctx context.Context, fn func() error) error
	stop()
}

// directDispatcher runs the call inline.
type directDispatcher struct{}

func (directDispatcher) do(ctx context.Context, fn func() error) error {
	return fn()
}

func (directDispatcher) stop() {}

type usbJob struct {
	fn     func() error
	result chan error
}

// usbDispatcher serializes calls on one worker goroutine. Context expiry is
// only honored before the worker accepts the job: once a call is in flight
// it runs to completion and the caller waits for it, so the session mutex is
// never released while device I/O is still running. No cancellation of the
// blocking transport call is exposed.
type usbDispatcher struct {
	jobs chan usbJob
}

func newUSBDispatcher() *usbDispatcher {
	d := &usbDispatcher{jobs: make(chan usbJob)}
	go d.loop()
	return d
}

func (d *usbDispatcher) loop() {
	for j := range d.jobs {
		j.result <- j.fn()
	}
}

func (d *usbDispatcher) do(ctx context.Context, fn func() error) error {
	j := usbJob{fn: fn, result: make(chan error, 1)}

	select {
	case d.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-j.result
}

// stop ends the worker. The manager guarantees stop never races a do: both
// are only called with the session mutex held.
func (d *usbDispatcher) stop() {
	close(d.jobs)
}
