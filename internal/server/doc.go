// Package server assembles the service: configuration, logging, metrics,
// the ADB transport, the session manager, and the HTTP router.
package server
