// Package adb wraps the platform adb binary behind a narrow transport
// interface. Wire framing, the RSA authorization handshake, and USB device
// claiming are all handled by the adb server; this package only locates the
// binary, manages the authorization key pair, and translates calls into adb
// invocations.
//
// Two handle flavors exist: USB handles address a device by serial through
// the local adb server, network handles address a device by host:port after
// an explicit adb connect. Closing a USB handle is a no-op (the cable session
// belongs to the server); closing a network handle issues adb disconnect.
package adb
