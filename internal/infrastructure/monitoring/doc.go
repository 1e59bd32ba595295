// Package monitoring provides Prometheus metrics for the HTTP surface and
// the device command path.
//
// Metrics are registered on the default registry and exposed at /metrics.
// The Timer helper measures device command durations:
//
//	timer := monitoring.NewTimer(metrics, "usb", "shell")
//	defer timer.Stop(status)
package monitoring
