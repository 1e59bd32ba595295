package http

import "github.com/gin-gonic/gin"

// Register wires the API routes onto the router. The /metrics endpoint is
// registered by the server alongside its Prometheus registry.
func Register(r gin.IRouter, h *Handlers) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// Discovery and session lifecycle
	r.GET("/devices/usb", h.ListUSBDevices)
	r.POST("/connect", h.Connect)
	r.POST("/disconnect", h.Disconnect)
	r.GET("/state", h.State)
	r.POST("/shell", h.Shell)
	r.POST("/tcpip", h.TCPIP)

	// Device controls
	r.POST("/wake", h.Wake)
	r.POST("/sleep", h.Sleep)
	r.POST("/brightness", h.Brightness)
	r.POST("/tap", h.Tap)
	r.POST("/swipe", h.Swipe)
	r.POST("/keyevent", h.KeyEvent)
	r.POST("/app", h.App)

	// Media
	r.GET("/screenshot", h.Screenshot)
	r.POST("/upload", h.Upload)
	r.POST("/download", h.Download)
}
