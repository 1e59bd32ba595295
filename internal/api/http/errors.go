package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frameolabs/frameo-control/internal/session"
)

// statusFor maps session error kinds to HTTP status codes. Unrecognized
// errors are treated as internal failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrWrongTransport):
		return http.StatusConflict
	case errors.Is(err, session.ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
