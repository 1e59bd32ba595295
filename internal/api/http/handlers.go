package http

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/frameolabs/frameo-control/internal/adb"
	"github.com/frameolabs/frameo-control/internal/device"
	"github.com/frameolabs/frameo-control/internal/session"
)

// maxUploadBytes caps multipart photo uploads.
const maxUploadBytes = 64 << 20

// Session is the session manager surface the handlers use.
type Session interface {
	Connect(ctx context.Context, req session.ConnectRequest) (session.Info, error)
	Disconnect() error
	Execute(ctx context.Context, command string) (string, error)
	QueryState(ctx context.Context) (session.DeviceState, error)
	EnableWirelessDebug(ctx context.Context, port int) (int, error)
	Info() session.Info
}

// Device is the controller surface the handlers use.
type Device interface {
	Wake(ctx context.Context) error
	Sleep(ctx context.Context) error
	SetBrightness(ctx context.Context, level int) error
	Tap(ctx context.Context, x, y int) error
	Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error
	KeyEvent(ctx context.Context, code string) error
	App(ctx context.Context, action device.AppAction) error
	Screenshot(ctx context.Context) ([]byte, error)
	Upload(ctx context.Context, name string, data []byte) (string, error)
	DownloadFile(ctx context.Context, remotePath string) (device.Download, error)
}

// Discovery lists attached devices independent of the session.
type Discovery interface {
	ListUSBDevices(ctx context.Context) ([]adb.Device, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions  Session
	devices   Device
	discovery Discovery
	logger    *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(sessions Session, devices Device, discovery Discovery, logger *zap.Logger) *Handlers {
	return &Handlers{
		sessions:  sessions,
		devices:   devices,
		discovery: discovery,
		logger:    logger,
	}
}

// Root serves the service banner and endpoint index
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Frameo Control",
		"version": "1.0.0",
		"endpoints": []string{
			"GET /health", "GET /devices/usb", "POST /connect", "POST /disconnect",
			"GET /state", "POST /shell", "POST /tcpip",
			"POST /wake", "POST /sleep", "POST /brightness",
			"POST /tap", "POST /swipe", "POST /keyevent", "POST /app",
			"GET /screenshot", "POST /upload", "POST /download",
			"GET /metrics",
		},
	})
}

// Health reports liveness and the current session
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"session": h.sessions.Info(),
	})
}

// ListUSBDevices lists cable-attached devices
func (h *Handlers) ListUSBDevices(c *gin.Context) {
	devices, err := h.discovery.ListUSBDevices(c.Request.Context())
	if err != nil {
		h.logger.Error("device discovery failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if devices == nil {
		devices = []adb.Device{}
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices, "count": len(devices)})
}

type connectRequest struct {
	Type   string `json:"type" binding:"required"`
	Serial string `json:"serial"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// Connect opens a session, replacing any existing one
func (h *Handlers) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.sessions.Connect(c.Request.Context(), session.ConnectRequest{
		Kind:   session.Kind(req.Type),
		Serial: req.Serial,
		Host:   req.Host,
		Port:   req.Port,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": info})
}

// Disconnect releases the session; succeeds even when nothing is connected
func (h *Handlers) Disconnect(c *gin.Context) {
	if err := h.sessions.Disconnect(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// State reports screen power and brightness
func (h *Handlers) State(c *gin.Context) {
	state, err := h.sessions.QueryState(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type shellRequest struct {
	Command string `json:"command" binding:"required"`
}

// Shell runs an arbitrary shell command on the device. The command passes
// through verbatim; this endpoint is as privileged as adb itself.
func (h *Handlers) Shell(c *gin.Context) {
	var req shellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.sessions.Execute(c.Request.Context(), req.Command)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"output": out})
}

type tcpipRequest struct {
	Port int `json:"port"`
}

// TCPIP enables the device's ADB-over-TCP listener
func (h *Handlers) TCPIP(c *gin.Context) {
	var req tcpipRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	port, err := h.sessions.EnableWirelessDebug(c.Request.Context(), req.Port)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "port": port})
}

// Wake turns the screen on
func (h *Handlers) Wake(c *gin.Context) {
	if err := h.devices.Wake(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Sleep turns the screen off
func (h *Handlers) Sleep(c *gin.Context) {
	if err := h.devices.Sleep(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type brightnessRequest struct {
	Level *int `json:"level" binding:"required"`
}

// Brightness sets the screen brightness
func (h *Handlers) Brightness(c *gin.Context) {
	var req brightnessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.devices.SetBrightness(c.Request.Context(), *req.Level); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "level": *req.Level})
}

type tapRequest struct {
	X *int `json:"x" binding:"required"`
	Y *int `json:"y" binding:"required"`
}

// Tap injects a touch
func (h *Handlers) Tap(c *gin.Context) {
	var req tapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.devices.Tap(c.Request.Context(), *req.X, *req.Y); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type swipeRequest struct {
	X1         *int `json:"x1" binding:"required"`
	Y1         *int `json:"y1" binding:"required"`
	X2         *int `json:"x2" binding:"required"`
	Y2         *int `json:"y2" binding:"required"`
	DurationMs int  `json:"duration_ms"`
}

// Swipe injects a swipe gesture
func (h *Handlers) Swipe(c *gin.Context) {
	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.devices.Swipe(c.Request.Context(), *req.X1, *req.Y1, *req.X2, *req.Y2, req.DurationMs); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type keyeventRequest struct {
	Code string `json:"code" binding:"required"`
}

// KeyEvent injects a key press
func (h *Handlers) KeyEvent(c *gin.Context) {
	var req keyeventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.devices.KeyEvent(c.Request.Context(), req.Code); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type appRequest struct {
	Action string `json:"action" binding:"required"`
}

// App controls the Frameo application lifecycle
func (h *Handlers) App(c *gin.Context) {
	var req appRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.devices.App(c.Request.Context(), device.AppAction(req.Action)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "action": req.Action})
}

// Screenshot captures the screen as PNG
func (h *Handlers) Screenshot(c *gin.Context) {
	data, err := h.devices.Screenshot(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// Upload pushes a multipart file to the device's photo directory
func (h *Handlers) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field 'file'"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds upload limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	remote, err := h.devices.Upload(c.Request.Context(), file.Filename, data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "remote_path": remote, "size": file.Size})
}

type downloadRequest struct {
	RemotePath string `json:"remote_path" binding:"required"`
}

// Download pulls a device file and streams it back
func (h *Handlers) Download(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dl, err := h.devices.DownloadFile(c.Request.Context(), req.RemotePath)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+dl.Name+`"`)
	c.Data(http.StatusOK, dl.ContentType, dl.Data)
}
