package adb

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client locates and invokes the adb binary.
type Client struct {
	path    string
	keyPath string
	timeout time.Duration
	logger  *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds a single adb invocation.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger attaches a logger for command tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the adb binary at path. An empty path means
// auto-detect. keyPath is where the authorization key pair lives; empty
// disables vendor-key injection and leaves key handling to the adb server's
// defaults.
func NewClient(path, keyPath string, opts ...Option) (*Client, error) {
	if path == "" {
		path = AutoDetect()
	}
	if path == "" {
		return nil, fmt.Errorf("adb binary not found; install platform-tools or set ADB_PATH")
	}

	c := &Client{
		path:    path,
		keyPath: keyPath,
		timeout: 60 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Path returns the resolved adb binary path.
func (c *Client) Path() string {
	return c.path
}

// EnsureKeys generates the RSA key pair at the configured path if it does
// not exist yet. The public half (<path>.pub) is what the device records
// when the user confirms the authorization prompt.
func (c *Client) EnsureKeys(ctx context.Context) error {
	if c.keyPath == "" {
		return nil
	}
	if _, err := os.Stat(c.keyPath); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.keyPath), 0o755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	c.logger.Info("generating ADB key pair", zap.String("path", c.keyPath))
	if out, err := c.run(ctx, "keygen", c.keyPath); err != nil {
		return fmt.Errorf("adb keygen failed: %w (output: %s)", err, strings.TrimSpace(out))
	}
	return nil
}

// StartServer makes sure the adb server is running. Best-effort.
func (c *Client) StartServer(ctx context.Context) {
	_, _ = c.run(ctx, "start-server")
}

// run invokes adb with the given args and returns its stdout. Stderr is kept
// out of the returned text (adb prints its own warnings there) and is folded
// into the error on failure.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Env = c.env()

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.logger.Debug("adb command failed",
			zap.Strings("args", args),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err),
		)
		return stdout.String(), fmt.Errorf("adb %s: %w (stderr: %s)", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// runRaw invokes adb and returns raw stdout bytes, suitable for binary
// streams such as exec-out screencap.
func (c *Client) runRaw(ctx context.Context, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Env = c.env()

	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("adb %s: %w (stderr: %s)", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (c *Client) env() []string {
	env := os.Environ()
	if c.keyPath != "" {
		env = append(env, "ADB_VENDOR_KEYS="+c.keyPath)
	}
	return env
}

// AutoDetect tries to find adb in PATH or common install locations.
func AutoDetect() string {
	exe := executableName()
	if p, err := exec.LookPath(exe); err == nil {
		return p
	}

	var roots []string
	roots = append(roots, os.Getenv("ANDROID_SDK_ROOT"), os.Getenv("ANDROID_HOME"))
	if home, err := os.UserHomeDir(); err == nil {
		switch runtime.GOOS {
		case "darwin":
			roots = append(roots, filepath.Join(home, "Library", "Android", "sdk"))
		default:
			roots = append(roots, filepath.Join(home, "Android", "Sdk"))
		}
	}
	for _, root := range roots {
		if root == "" {
			continue
		}
		cand := filepath.Join(root, "platform-tools", exe)
		if fileExists(cand) {
			return cand
		}
	}

	for _, cand := range []string{
		"/usr/bin/" + exe,
		"/usr/local/bin/" + exe,
		"/opt/homebrew/bin/" + exe,
	} {
		if fileExists(cand) {
			return cand
		}
	}
	return ""
}

func executableName() string {
	if runtime.GOOS == "windows" {
		return "adb.exe"
	}
	return "adb"
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
