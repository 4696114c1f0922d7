package controllerImp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
)

var appStart = time.Now()

const dialTimeout = 800 * time.Millisecond

type HealthCtrl struct {
	endpoint string
	dialer   *net.Dialer
}

// NewHealthCtrl checks reachability of the prediction endpoint. It only opens
// a TCP connection, it never sends a prediction.
func NewHealthCtrl(endpoint string) *HealthCtrl {
	return &HealthCtrl{endpoint: endpoint, dialer: &net.Dialer{}}
}

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dialTimeout)
	defer cancel()

	backendOK := true
	backendErr := ""
	if err := h.dialBackend(ctx); err != nil {
		backendOK = false
		backendErr = err.Error()
	}

	status := http.StatusOK
	if !backendOK {
		status = http.StatusServiceUnavailable
	}

	type sub struct {
		OK       bool   `json:"ok"`
		Endpoint string `json:"endpoint"`
		Err      string `json:"err,omitempty"`
	}

	resp := map[string]any{
		"status":     map[string]any{"ok": backendOK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks": map[string]any{
			"prediction_backend": sub{OK: backendOK, Endpoint: h.endpoint, Err: backendErr},
		},
		"time": time.Now().Format(time.RFC3339),
	}

	return c.JSON(status, resp)
}

func (h *HealthCtrl) dialBackend(ctx context.Context) error {
	addr, err := dialAddr(h.endpoint)
	if err != nil {
		return err
	}
	conn, err := h.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn.Close()
}

func dialAddr(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
