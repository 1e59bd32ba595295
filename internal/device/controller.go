package device

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/frameolabs/frameo-control/internal/infrastructure/monitoring"
	"github.com/frameolabs/frameo-control/internal/session"
)

// Executor is the slice of the session manager the controller needs.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
	ExecuteRaw(ctx context.Context, command string) ([]byte, error)
	Push(ctx context.Context, localPath, remotePath string) error
	Pull(ctx context.Context, remotePath, localPath string) error
}

// AppAction selects an app lifecycle operation.
type AppAction string

const (
	AppOpen      AppAction = "open"
	AppRestart   AppAction = "restart"
	AppForceStop AppAction = "force-stop"
)

// Download is a pulled device file with its sniffed content type.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
}

// Controller executes Frameo device operations over an active session.
type Controller struct {
	exec      Executor
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	uploadDir string
}

// NewController creates a controller targeting DefaultUploadDir.
func NewController(exec Executor, logger *zap.Logger) *Controller {
	return &Controller{exec: exec, logger: logger, uploadDir: DefaultUploadDir}
}

// WithUploadDir overrides the device directory uploads land in.
func (c *Controller) WithUploadDir(dir string) *Controller {
	c.uploadDir = dir
	return c
}

// WithMetrics attaches a metrics collector for transfer accounting.
func (c *Controller) WithMetrics(metrics *monitoring.Metrics) *Controller {
	c.metrics = metrics
	return c
}

// Wake turns the screen on.
func (c *Controller) Wake(ctx context.Context) error {
	_, err := c.exec.Execute(ctx, wakeCommand)
	return err
}

// Sleep turns the screen off.
func (c *Controller) Sleep(ctx context.Context) error {
	_, err := c.exec.Execute(ctx, sleepCommand)
	return err
}

// SetBrightness writes the system brightness setting. Level is the raw
// Android scale.
func (c *Controller) SetBrightness(ctx context.Context, level int) error {
	if level < 0 || level > 255 {
		return fmt.Errorf("%w: brightness %d outside 0-255", session.ErrInvalidRequest, level)
	}
	_, err := c.exec.Execute(ctx, brightnessCommand(level))
	return err
}

// Tap injects a touch at screen coordinates.
func (c *Controller) Tap(ctx context.Context, x, y int) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("%w: tap coordinates must be non-negative", session.ErrInvalidRequest)
	}
	_, err := c.exec.Execute(ctx, tapCommand(x, y))
	return err
}

// Swipe injects a swipe gesture. durationMs of 0 lets the device pick.
func (c *Controller) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error {
	if x1 < 0 || y1 < 0 || x2 < 0 || y2 < 0 || durationMs < 0 {
		return fmt.Errorf("%w: swipe arguments must be non-negative", session.ErrInvalidRequest)
	}
	_, err := c.exec.Execute(ctx, swipeCommand(x1, y1, x2, y2, durationMs))
	return err
}

// KeyEvent injects a key press. Code is a numeric keycode or a KEYCODE_*
// name, passed through to the device.
func (c *Controller) KeyEvent(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" || strings.ContainsAny(code, " \t\n") {
		return fmt.Errorf("%w: keyevent code must be a single token", session.ErrInvalidRequest)
	}
	_, err := c.exec.Execute(ctx, keyeventCommand(code))
	return err
}

// App runs a lifecycle action against the Frameo application.
func (c *Controller) App(ctx context.Context, action AppAction) error {
	switch action {
	case AppOpen:
		_, err := c.exec.Execute(ctx, launchCommand(FrameoPackage))
		return err
	case AppForceStop:
		_, err := c.exec.Execute(ctx, forceStopCommand(FrameoPackage))
		return err
	case AppRestart:
		if _, err := c.exec.Execute(ctx, forceStopCommand(FrameoPackage)); err != nil {
			return err
		}
		_, err := c.exec.Execute(ctx, launchCommand(FrameoPackage))
		return err
	default:
		return fmt.Errorf("%w: app action must be %q, %q or %q", session.ErrInvalidRequest, AppOpen, AppRestart, AppForceStop)
	}
}

// Screenshot captures the screen as PNG bytes.
func (c *Controller) Screenshot(ctx context.Context) ([]byte, error) {
	return c.exec.ExecuteRaw(ctx, screenshotCommand)
}

// Upload stages data in a temp file, pushes it into the upload directory
// under the given name, and nudges the media scanner so Frameo notices the
// new photo.
func (c *Controller) Upload(ctx context.Context, name string, data []byte) (string, error) {
	name = path.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("%w: missing upload file name", session.ErrInvalidRequest)
	}

	tmp, err := os.CreateTemp("", "frameo-upload-*")
	if err != nil {
		return "", fmt.Errorf("staging upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("staging upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("staging upload: %w", err)
	}

	remotePath := path.Join(c.uploadDir, name)
	if err := c.exec.Push(ctx, tmp.Name(), remotePath); err != nil {
		return "", err
	}
	if c.metrics != nil {
		c.metrics.RecordTransfer("push", int64(len(data)))
	}

	if _, err := c.exec.Execute(ctx, mediaScanCommand(remotePath)); err != nil {
		// The file is on the device; a failed scan only delays pickup.
		c.logger.Warn("media scan broadcast failed", zap.String("path", remotePath), zap.Error(err))
	}
	return remotePath, nil
}

// DownloadFile pulls a device file into memory and sniffs its content type.
func (c *Controller) DownloadFile(ctx context.Context, remotePath string) (Download, error) {
	remotePath = strings.TrimSpace(remotePath)
	if remotePath == "" {
		return Download{}, fmt.Errorf("%w: missing remote path", session.ErrInvalidRequest)
	}

	dir, err := os.MkdirTemp("", "frameo-download-")
	if err != nil {
		return Download{}, fmt.Errorf("staging download: %w", err)
	}
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, path.Base(remotePath))
	if err := c.exec.Pull(ctx, remotePath, local); err != nil {
		return Download{}, err
	}

	data, err := os.ReadFile(local)
	if err != nil {
		return Download{}, fmt.Errorf("reading pulled file: %w", err)
	}
	if c.metrics != nil {
		c.metrics.RecordTransfer("pull", int64(len(data)))
	}

	return Download{
		Name:        path.Base(remotePath),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}
