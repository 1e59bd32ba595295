package adb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OpenUSB opens a handle to a cable-attached device by serial. The device
// must be attached and authorized; an unauthorized device means the user has
// not yet confirmed the debugging prompt on its screen.
func (c *Client) OpenUSB(ctx context.Context, serial string) (*USBHandle, error) {
	c.StartServer(ctx)

	out, err := c.run(ctx, "-s", serial, "get-state")
	if err != nil {
		// "error: device 'X' not found" arrives on stderr, folded into err.
		if strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("device %q not found", serial)
		}
		return nil, fmt.Errorf("failed to query device %q: %w", serial, err)
	}
	state := strings.TrimSpace(out)
	switch state {
	case "device":
		// authorized and ready
	case "unauthorized":
		return nil, fmt.Errorf("device %q is unauthorized; confirm the debugging prompt on its screen", serial)
	default:
		return nil, fmt.Errorf("device %q is in state %q, expected \"device\"", serial, state)
	}

	c.logger.Info("opened USB handle", zap.String("serial", serial))
	return &USBHandle{client: c, serial: serial}, nil
}

// OpenNetwork connects to a device listening for ADB over TCP.
func (c *Client) OpenNetwork(ctx context.Context, host string, port int) (*TCPHandle, error) {
	c.StartServer(ctx)

	addr := host + ":" + strconv.Itoa(port)
	out, err := c.run(ctx, "connect", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w (output: %s)", addr, err, strings.TrimSpace(out))
	}
	// adb connect exits zero even on failure; the outcome is in the text.
	if !strings.Contains(out, "connected to") {
		return nil, fmt.Errorf("failed to connect to %s: %s", addr, strings.TrimSpace(out))
	}

	c.logger.Info("opened network handle", zap.String("addr", addr))
	return &TCPHandle{client: c, addr: addr}, nil
}

// USBHandle is an open session to a cable-attached device.
type USBHandle struct {
	client *Client
	serial string
}

// Serial returns the device serial.
func (h *USBHandle) Serial() string { return h.serial }

// Shell runs a shell command and returns its text output.
func (h *USBHandle) Shell(ctx context.Context, command string) (string, error) {
	return h.client.run(ctx, "-s", h.serial, "shell", command)
}

// ShellRaw runs a shell command through exec-out and returns raw bytes.
func (h *USBHandle) ShellRaw(ctx context.Context, command string) ([]byte, error) {
	return h.client.runRaw(ctx, "-s", h.serial, "exec-out", command)
}

// EnableTCPListener restarts the device's adbd listening on the given TCP
// port. The USB session survives; subsequent network connects target the
// new listener.
func (h *USBHandle) EnableTCPListener(ctx context.Context, port int) error {
	out, err := h.client.run(ctx, "-s", h.serial, "tcpip", strconv.Itoa(port))
	if err != nil {
		return fmt.Errorf("failed to enable TCP listener on port %d: %w (output: %s)", port, err, strings.TrimSpace(out))
	}
	return nil
}

// Push copies a local file to the device.
func (h *USBHandle) Push(ctx context.Context, localPath, remotePath string) error {
	return push(ctx, h.client, h.serial, localPath, remotePath)
}

// Pull copies a device file to a local path.
func (h *USBHandle) Pull(ctx context.Context, remotePath, localPath string) error {
	return pull(ctx, h.client, h.serial, remotePath, localPath)
}

// Close releases the handle. The cable session is owned by the adb server,
// so there is nothing to tear down.
func (h *USBHandle) Close() error { return nil }

// TCPHandle is an open session to a device over the network.
type TCPHandle struct {
	client *Client
	addr   string
}

// Addr returns the host:port endpoint.
func (h *TCPHandle) Addr() string { return h.addr }

// Shell runs a shell command and returns its text output.
func (h *TCPHandle) Shell(ctx context.Context, command string) (string, error) {
	return h.client.run(ctx, "-s", h.addr, "shell", command)
}

// ShellRaw runs a shell command through exec-out and returns raw bytes.
func (h *TCPHandle) ShellRaw(ctx context.Context, command string) ([]byte, error) {
	return h.client.runRaw(ctx, "-s", h.addr, "exec-out", command)
}

// EnableTCPListener is not meaningful on a network handle; the device is
// already listening.
func (h *TCPHandle) EnableTCPListener(ctx context.Context, port int) error {
	return fmt.Errorf("tcp listener can only be enabled over a USB session")
}

// Push copies a local file to the device.
func (h *TCPHandle) Push(ctx context.Context, localPath, remotePath string) error {
	return push(ctx, h.client, h.addr, localPath, remotePath)
}

// Pull copies a device file to a local path.
func (h *TCPHandle) Pull(ctx context.Context, remotePath, localPath string) error {
	return pull(ctx, h.client, h.addr, remotePath, localPath)
}

// Close disconnects the TCP session. Best-effort: a device that already
// dropped the link reports "no such device", which is not an error here.
func (h *TCPHandle) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.client.run(ctx, "disconnect", h.addr)
	if err != nil && !strings.Contains(err.Error(), "no such device") {
		return fmt.Errorf("failed to disconnect %s: %w", h.addr, err)
	}
	return nil
}

func push(ctx context.Context, c *Client, id, localPath, remotePath string) error {
	out, err := c.run(ctx, "-s", id, "push", localPath, remotePath)
	if err != nil {
		return fmt.Errorf("push failed: %w (output: %s)", err, strings.TrimSpace(out))
	}
	return nil
}

func pull(ctx context.Context, c *Client, id, remotePath, localPath string) error {
	out, err := c.run(ctx, "-s", id, "pull", remotePath, localPath)
	if err != nil {
		return fmt.Errorf("pull failed: %w (output: %s)", err, strings.TrimSpace(out))
	}
	return nil
}
