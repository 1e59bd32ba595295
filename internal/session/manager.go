package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/frameolabs/frameo-control/internal/infrastructure/monitoring"
)

// Kind is the transport of the active session.
type Kind string

const (
	KindNone    Kind = "none"
	KindUSB     Kind = "usb"
	KindNetwork Kind = "network"
)

// DefaultNetworkPort is the conventional ADB-over-TCP port.
const DefaultNetworkPort = 5555

// Transport acquires handles from the underlying ADB library.
type Transport interface {
	OpenUSB(ctx context.Context, serial string) (Handle, error)
	OpenNetwork(ctx context.Context, host string, port int) (Handle, error)
}

// Handle is one open, authorized connection to a device.
type Handle interface {
	Shell(ctx context.Context, command string) (string, error)
	ShellRaw(ctx context.Context, command string) ([]byte, error)
	EnableTCPListener(ctx context.Context, port int) error
	Push(ctx context.Context, localPath, remotePath string) error
	Pull(ctx context.Context, remotePath, localPath string) error
	Close() error
}

// ConnectRequest is a discriminated connect request.
type ConnectRequest struct {
	Kind   Kind
	Serial string // required for usb
	Host   string // required for network
	Port   int    // network only; 0 means DefaultNetworkPort
}

// Info describes the current session.
type Info struct {
	Connected   bool      `json:"connected"`
	Transport   Kind      `json:"transport"`
	Endpoint    string    `json:"endpoint,omitempty"`
	ConnectedAt time.Time `json:"connected_at,omitzero"`
}

// Manager holds the single device session. All operations are mutually
// exclusive: connect and disconnect never overlap an in-flight command.
type Manager struct {
	transport Transport
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu          sync.Mutex
	kind        Kind
	handle      Handle
	endpoint    string
	connectedAt time.Time
	dispatch    dispatcher
}

// NewManager creates a manager in the disconnected state.
func NewManager(transport Transport, logger *zap.Logger) *Manager {
	return &Manager{
		transport: transport,
		logger:    logger,
		kind:      KindNone,
	}
}

// WithMetrics attaches a metrics collector.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Connect establishes a new session, releasing any prior handle first.
// On failure the session is left disconnected.
func (m *Manager) Connect(ctx context.Context, req ConnectRequest) (Info, error) {
	switch req.Kind {
	case KindUSB:
		if strings.TrimSpace(req.Serial) == "" {
			return Info{}, fmt.Errorf("%w: missing serial for USB connection", ErrInvalidRequest)
		}
	case KindNetwork:
		if strings.TrimSpace(req.Host) == "" {
			return Info{}, fmt.Errorf("%w: missing host for network connection", ErrInvalidRequest)
		}
		if req.Port == 0 {
			req.Port = DefaultNetworkPort
		}
		if req.Port < 1 {
			return Info{}, fmt.Errorf("%w: invalid port %d", ErrInvalidRequest, req.Port)
		}
	default:
		return Info{}, fmt.Errorf("%w: connection type must be %q or %q", ErrInvalidRequest, KindUSB, KindNetwork)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Close-then-open: never hold two handles.
	m.releaseLocked()

	var (
		handle   Handle
		endpoint string
		err      error
	)
	switch req.Kind {
	case KindUSB:
		endpoint = req.Serial
		handle, err = m.transport.OpenUSB(ctx, req.Serial)
	case KindNetwork:
		endpoint = fmt.Sprintf("%s:%d", req.Host, req.Port)
		handle, err = m.transport.OpenNetwork(ctx, req.Host, req.Port)
	}
	if err != nil {
		m.recordConnect(req.Kind, "error")
		m.logger.Error("connect failed",
			zap.String("transport", string(req.Kind)),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return Info{}, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	m.kind = req.Kind
	m.handle = handle
	m.endpoint = endpoint
	m.connectedAt = time.Now()
	if req.Kind == KindUSB {
		m.dispatch = newUSBDispatcher()
	} else {
		m.dispatch = directDispatcher{}
	}

	m.recordConnect(req.Kind, "success")
	if m.metrics != nil {
		m.metrics.SetConnected(true)
	}
	m.logger.Info("device connected",
		zap.String("transport", string(req.Kind)),
		zap.String("endpoint", endpoint),
	)
	return m.infoLocked(), nil
}

// Disconnect releases the session. Idempotent: disconnecting an empty
// session is a no-op success.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.kind == KindNone {
		return nil
	}

	m.logger.Info("device disconnected",
		zap.String("transport", string(m.kind)),
		zap.String("endpoint", m.endpoint),
	)
	m.releaseLocked()
	if m.metrics != nil {
		m.metrics.SetConnected(false)
		m.metrics.IncDisconnects()
	}
	return nil
}

// Execute dispatches a shell command verbatim to the device and returns its
// text output. The command string passes through unsanitized by contract;
// any policy enforcement belongs to the calling layer.
func (m *Manager) Execute(ctx context.Context, command string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shellLocked(ctx, command)
}

// ExecuteRaw dispatches a shell command and returns raw bytes, for binary
// output such as screenshots.
func (m *Manager) ExecuteRaw(ctx context.Context, command string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.kind == KindNone {
		return nil, ErrNotConnected
	}

	timer := m.newTimer("shell_raw")
	var out []byte
	err := m.dispatch.do(ctx, func() error {
		var derr error
		out, derr = m.handle.ShellRaw(ctx, command)
		return derr
	})
	if err != nil {
		timer.stop("error")
		return nil, fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}
	timer.stop("success")
	return out, nil
}

// Push copies a local file to the device.
func (m *Manager) Push(ctx context.Context, localPath, remotePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.kind == KindNone {
		return ErrNotConnected
	}

	timer := m.newTimer("push")
	err := m.dispatch.do(ctx, func() error {
		return m.handle.Push(ctx, localPath, remotePath)
	})
	if err != nil {
		timer.stop("error")
		return fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}
	timer.stop("success")
	return nil
}

// Pull copies a device file to a local path.
func (m *Manager) Pull(ctx context.Context, remotePath, localPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.kind == KindNone {
		return ErrNotConnected
	}

	timer := m.newTimer("pull")
	err := m.dispatch.do(ctx, func() error {
		return m.handle.Pull(ctx, remotePath, localPath)
	})
	if err != nil {
		timer.stop("error")
		return fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}
	timer.stop("success")
	return nil
}

// QueryState reads screen power and brightness from the device. The text
// formats are device and firmware dependent; parsing is best-effort and a
// mismatch surfaces as ErrParse with the raw output attached.
func (m *Manager) QueryState(ctx context.Context) (DeviceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	powerOut, err := m.shellLocked(ctx, powerDumpCommand)
	if err != nil {
		return DeviceState{}, err
	}
	isOn, err := parsePower(powerOut)
	if err != nil {
		return DeviceState{}, err
	}

	brightnessOut, err := m.shellLocked(ctx, brightnessCommand)
	if err != nil {
		return DeviceState{}, err
	}
	brightness, err := parseBrightness(brightnessOut)
	if err != nil {
		return DeviceState{}, err
	}

	return DeviceState{IsOn: isOn, Brightness: brightness}, nil
}

// EnableWirelessDebug instructs the device to listen for ADB over TCP on the
// given port (0 means DefaultNetworkPort). Only meaningful over a USB
// session. The session itself stays on USB; the caller connects over the
// network afterwards.
func (m *Manager) EnableWirelessDebug(ctx context.Context, port int) (int, error) {
	if port == 0 {
		port = DefaultNetworkPort
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.kind {
	case KindNone:
		return 0, ErrNotConnected
	case KindNetwork:
		return 0, fmt.Errorf("%w: wireless debug can only be enabled over USB", ErrWrongTransport)
	}

	timer := m.newTimer("tcpip")
	err := m.dispatch.do(ctx, func() error {
		return m.handle.EnableTCPListener(ctx, port)
	})
	if err != nil {
		timer.stop("error")
		return 0, fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}
	timer.stop("success")

	m.logger.Info("wireless debug enabled", zap.Int("port", port))
	return port, nil
}

// Info returns a snapshot of the current session.
func (m *Manager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.infoLocked()
}

// Close tears the session down at process shutdown. Best-effort.
func (m *Manager) Close() error {
	return m.Disconnect()
}

func (m *Manager) shellLocked(ctx context.Context, command string) (string, error) {
	if m.kind == KindNone {
		return "", ErrNotConnected
	}

	timer := m.newTimer("shell")
	var out string
	err := m.dispatch.do(ctx, func() error {
		var derr error
		out, derr = m.handle.Shell(ctx, command)
		return derr
	})
	if err != nil {
		timer.stop("error")
		return "", fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}
	timer.stop("success")
	return out, nil
}

// releaseLocked closes the active handle, ignoring close errors, and resets
// the session to empty. Caller holds the mutex.
func (m *Manager) releaseLocked() {
	if m.kind == KindNone {
		return
	}
	if m.dispatch != nil {
		m.dispatch.stop()
	}
	if err := m.handle.Close(); err != nil {
		m.logger.Warn("error closing previous connection", zap.Error(err))
	}
	m.kind = KindNone
	m.handle = nil
	m.endpoint = ""
	m.connectedAt = time.Time{}
	m.dispatch = nil
}

func (m *Manager) infoLocked() Info {
	return Info{
		Connected:   m.kind != KindNone,
		Transport:   m.kind,
		Endpoint:    m.endpoint,
		ConnectedAt: m.connectedAt,
	}
}

func (m *Manager) recordConnect(kind Kind, status string) {
	if m.metrics != nil {
		m.metrics.RecordConnect(string(kind), status)
	}
}

// cmdTimer wraps the optional metrics timer so call sites stay flat.
type cmdTimer struct {
	t *monitoring.Timer
}

func (m *Manager) newTimer(operation string) cmdTimer {
	if m.metrics == nil {
		return cmdTimer{}
	}
	return cmdTimer{t: monitoring.NewTimer(m.metrics, string(m.kind), operation)}
}

func (c cmdTimer) stop(status string) {
	if c.t != nil {
		c.t.Stop(status)
	}
}
