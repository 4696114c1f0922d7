package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"carprice/pkg/predict"
)

const maxRequestIDLen = 128

// RequestID keeps the caller's X-Request-ID, or assigns a fresh uuid, and
// makes it visible to the prediction client through the request context.
func RequestID() echo.MiddlewareFunc {
	return echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator:        uuid.NewString,
		RequestIDHandler: attachRequestID,
	})
}

func attachRequestID(c echo.Context, id string) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxRequestIDLen {
		id = uuid.NewString()
	}
	c.Response().Header().Set(echo.HeaderXRequestID, id)
	req := c.Request()
	c.SetRequest(req.WithContext(predict.WithRequestID(req.Context(), id)))
	c.Set("request_id", id)
}
