// Package device builds Frameo device operations on top of the session
// manager: screen power, brightness, input injection, app lifecycle,
// screenshots, and file transfer.
package device
