package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubTransport records every open/close in order and tracks how many
// handles are live at any moment.
type stubTransport struct {
	mu         sync.Mutex
	log        []string
	openErr    error
	shell      map[string]string
	shellErr   error
	shellDelay time.Duration
	liveCount      atomic.Int32
	inFlight       atomic.Int32
	overlapped     atomic.Bool
	closedMidShell atomic.Bool
}

func newStubTransport() *stubTransport {
	return &stubTransport{shell: map[string]string{}}
}

func (t *stubTransport) record(event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = append(t.log, event)
}

func (t *stubTransport) events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.log...)
}

func (t *stubTransport) OpenUSB(ctx context.Context, serial string) (Handle, error) {
	t.record("open usb " + serial)
	if t.openErr != nil {
		return nil, t.openErr
	}
	t.liveCount.Add(1)
	return &stubHandle{transport: t, id: serial}, nil
}

func (t *stubTransport) OpenNetwork(ctx context.Context, host string, port int) (Handle, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	t.record("open network " + addr)
	if t.openErr != nil {
		return nil, t.openErr
	}
	t.liveCount.Add(1)
	return &stubHandle{transport: t, id: addr}, nil
}

type stubHandle struct {
	transport *stubTransport
	id        string
	tcpipErr  error
}

func (h *stubHandle) Shell(ctx context.Context, command string) (string, error) {
	if h.transport.inFlight.Add(1) > 1 {
		h.transport.overlapped.Store(true)
	}
	defer h.transport.inFlight.Add(-1)

	if h.transport.shellDelay > 0 {
		time.Sleep(h.transport.shellDelay)
	}
	if h.transport.shellErr != nil {
		return "", h.transport.shellErr
	}
	return h.transport.shell[command], nil
}

func (h *stubHandle) ShellRaw(ctx context.Context, command string) ([]byte, error) {
	out, err := h.Shell(ctx, command)
	return []byte(out), err
}

func (h *stubHandle) EnableTCPListener(ctx context.Context, port int) error {
	h.transport.record(fmt.Sprintf("tcpip %d", port))
	return h.tcpipErr
}

func (h *stubHandle) Push(ctx context.Context, localPath, remotePath string) error {
	h.transport.record("push " + remotePath)
	return nil
}

func (h *stubHandle) Pull(ctx context.Context, remotePath, localPath string) error {
	h.transport.record("pull " + remotePath)
	return nil
}

func (h *stubHandle) Close() error {
	if h.transport.inFlight.Load() > 0 {
		h.transport.closedMidShell.Store(true)
	}
	h.transport.record("close " + h.id)
	h.transport.liveCount.Add(-1)
	return nil
}

func newTestManager(t *stubTransport) *Manager {
	return NewManager(t, zap.NewNop())
}

func TestConnectUSB(t *testing.T) {
	transport := newStubTransport()
	mgr := newTestManager(transport)

	info, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	require.NoError(t, err)

	assert.True(t, info.Connected)
	assert.Equal(t, KindUSB, info.Transport)
	assert.Equal(t, "ABC123", info.Endpoint)
	assert.False(t, info.ConnectedAt.IsZero())
	assert.Equal(t, int32(1), transport.liveCount.Load())
}

func TestConnectNetworkDefaultPort(t *testing.T) {
	transport := newStubTransport()
	mgr := newTestManager(transport)

	info, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindNetwork, Host: "192.168.1.10"})
	require.NoError(t, err)

	assert.Equal(t, KindNetwork, info.Transport)
	assert.Equal(t, "192.168.1.10:5555", info.Endpoint)
}

func TestConnectMissingFields(t *testing.T) {
	transport := newStubTransport()
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = mgr.Connect(context.Background(), ConnectRequest{Kind: KindNetwork})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = mgr.Connect(context.Background(), ConnectRequest{Kind: "serial"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// The transport is never touched on a rejected request.
	assert.Empty(t, transport.events())
	assert.False(t, mgr.Info().Connected)
}

func TestConnectFailureLeavesDisconnected(t *testing.T) {
	transport := newStubTransport()
	transport.openErr = errors.New("device 'ABC123' not found")
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Contains(t, err.Error(), "not found")

	assert.False(t, mgr.Info().Connected)
	assert.Equal(t, int32(0), transport.liveCount.Load())

	_, err = mgr.Execute(context.Background(), "echo hi")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestReconnectClosesBeforeOpening(t *testing.T) {
	transport := newStubTransport()
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	require.NoError(t, err)

	_, err = mgr.Connect(context.Background(), ConnectRequest{Kind: KindNetwork, Host: "192.168.1.10"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"open usb ABC123",
		"close ABC123",
		"open network 192.168.1.10:5555",
	}, transport.events())
	assert.Equal(t, int32(1), transport.liveCount.Load())
	assert.Equal(t, KindNetwork, mgr.Info().Transport)
}

func TestAtMostOneHandleAcrossConnects(t *testing.T) {
	transport := newStubTransport()
	mgr := newTestManager(transport)

	requests := []ConnectRequest{
		{Kind: KindUSB, Serial: "A"},
		{Kind: KindNetwork, Host: "10.0.0.1"},
		{Kind: KindUSB},
		{Kind: KindUSB, Serial: "B"},
		{Kind: KindNetwork, Host: "10.0.0.2", Port: 5556},
	}
	for _, req := range requests {
		_, _ = mgr.Connect(context.Background(), req)
		assert.LessOrEqual(t, transport.liveCount.Load(), int32(1))
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	transport := newStubTransport()
	mgr := newTestManager(transport)

	require.NoError(t, mgr.Disconnect())

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	require.NoError(t, err)

	require.NoError(t, mgr.Disconnect())
	assert.False(t, mgr.Info().Connected)
	assert.Equal(t, int32(0), transport.liveCount.Load())

	require.NoError(t, mgr.Disconnect())
	assert.False(t, mgr.Info().Connected)
}

func TestOperationsRequireConnection(t *testing.T) {
	mgr := newTestManager(newStubTransport())
	ctx := context.Background()

	_, err := mgr.Execute(ctx, "echo hi")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = mgr.ExecuteRaw(ctx, "screencap -p")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = mgr.QueryState(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = mgr.EnableWirelessDebug(ctx, 0)
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.ErrorIs(t, mgr.Push(ctx, "a", "b"), ErrNotConnected)
	assert.ErrorIs(t, mgr.Pull(ctx, "a", "b"), ErrNotConnected)
}

func TestExecutePassesCommandThrough(t *testing.T) {
	transport := newStubTransport()
	transport.shell["ls -la /sdcard"] = "total 0\n"
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	require.NoError(t, err)

	out, err := mgr.Execute(context.Background(), "ls -la /sdcard")
	require.NoError(t, err)
	assert.Equal(t, "total 0\n", out)
}

func TestExecuteWrapsTransportError(t *testing.T) {
	transport := newStubTransport()
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindNetwork, Host: "10.0.0.1"})
	require.NoError(t, err)

	transport.shellErr = errors.New("broken pipe")
	_, err = mgr.Execute(context.Background(), "echo hi")
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "broken pipe")

	// Command failures leave the session connected; the caller decides.
	assert.True(t, mgr.Info().Connected)
}

func TestQueryState(t *testing.T) {
	transport := newStubTransport()
	transport.shell[powerDumpCommand] = "mWakefulness=Awake"
	transport.shell[brightnessCommand] = "screen_brightness=128"
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	require.NoError(t, err)

	state, err := mgr.QueryState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DeviceState{IsOn: true, Brightness: 128}, state)
}

func TestQueryStateParseError(t *testing.T) {
	transport := newStubTransport()
	transport.shell[powerDumpCommand] = "something unexpected"
	transport.shell[brightnessCommand] = "128"
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	require.NoError(t, err)

	_, err = mgr.QueryState(context.Background())
	assert.ErrorIs(t, err, ErrParse)
	assert.NotErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "something unexpected")
}

func TestEnableWirelessDebug(t *testing.T) {
	transport := newStubTransport()
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	require.NoError(t, err)

	port, err := mgr.EnableWirelessDebug(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultNetworkPort, port)
	assert.Contains(t, transport.events(), "tcpip 5555")

	// Still a USB session: enabling the listener does not switch transports.
	assert.Equal(t, KindUSB, mgr.Info().Transport)
}

func TestEnableWirelessDebugWrongTransport(t *testing.T) {
	transport := newStubTransport()
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindNetwork, Host: "10.0.0.1"})
	require.NoError(t, err)

	_, err = mgr.EnableWirelessDebug(context.Background(), 5555)
	assert.ErrorIs(t, err, ErrWrongTransport)
}

func TestConcurrentExecutesNeverOverlap(t *testing.T) {
	transport := newStubTransport()
	transport.shellDelay = 20 * time.Millisecond
	transport.shell["echo hi"] = "hi"
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Execute(context.Background(), "echo hi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, transport.overlapped.Load(), "two shell calls ran simultaneously against one handle")
}

func TestExpiredContextNeverReleasesMidCommand(t *testing.T) {
	transport := newStubTransport()
	transport.shellDelay = 150 * time.Millisecond
	transport.shell["echo hi"] = "hi"
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	out, err := mgr.Execute(ctx, "echo hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	// The accepted command ran to completion before the manager moved on,
	// even though the caller's context expired mid-flight.
	assert.GreaterOrEqual(t, time.Since(start), transport.shellDelay)

	require.NoError(t, mgr.Disconnect())
	assert.False(t, transport.closedMidShell.Load(),
		"handle closed while a dispatched command was still running")
}

func TestCloseIsBestEffortDisconnect(t *testing.T) {
	transport := newStubTransport()
	mgr := newTestManager(transport)

	_, err := mgr.Connect(context.Background(), ConnectRequest{Kind: KindUSB, Serial: "ABC123"})
	require.NoError(t, err)

	require.NoError(t, mgr.Close())
	assert.False(t, mgr.Info().Connected)
}
