// Package client fetches exposition text from a LINSTOR controller and
// dashboard views from a running dashboard server.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/and161185/linstor-dashboard/internal/client/transport"
	"github.com/and161185/linstor-dashboard/internal/errs"
	"github.com/and161185/linstor-dashboard/internal/utils"
	"github.com/and161185/linstor-dashboard/model"
	"go.uber.org/zap"
)

const (
	dashboardPath = "/api/v1/dashboard"
	refreshPath   = "/api/v1/dashboard/refresh"
)

// Client performs one-shot requests for dashctl.
type Client struct {
	httpClient *http.Client
	key        string
	realIP     string
	logger     *zap.SugaredLogger
}

// New creates a client with the given timeout. A non-empty key signs
// request bodies and verifies response hashes.
func New(timeout time.Duration, key string, logger *zap.SugaredLogger) *Client {
	hc := &http.Client{
		Timeout:   timeout,
		Transport: &transport.SignRoundTripper{Base: http.DefaultTransport, Key: key},
	}
	return NewWithHTTP(hc, key, logger)
}

// NewWithHTTP wraps a ready http.Client.
func NewWithHTTP(hc *http.Client, key string, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{httpClient: hc, key: key, realIP: detectOutboundIP(), logger: logger}
}

func detectOutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()
	if la, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return la.IP.String()
	}
	return ""
}

// FetchExposition returns the body of the controller's metrics endpoint.
func (c *Client) FetchExposition(ctx context.Context, metricsURL string) ([]byte, error) {
	body, _, err := c.do(ctx, http.MethodGet, metricsURL, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrFetchFailed, err)
	}
	return body, nil
}

// Dashboard reads the current view from a dashboard server.
func (c *Client) Dashboard(ctx context.Context, serverURL string) (*model.DashboardView, error) {
	body, _, err := c.do(ctx, http.MethodGet, strings.TrimRight(serverURL, "/")+dashboardPath, true)
	if err != nil {
		return nil, err
	}
	var view model.DashboardView
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("decode dashboard: %w", err)
	}
	return &view, nil
}

// Refresh asks a dashboard server to poll the controller now.
func (c *Client) Refresh(ctx context.Context, serverURL string) (*model.DashboardView, error) {
	body, _, err := c.do(ctx, http.MethodPost, strings.TrimRight(serverURL, "/")+refreshPath, true)
	if err != nil {
		return nil, err
	}
	var view model.DashboardView
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("decode refresh: %w", err)
	}
	return &view, nil
}

// do sends the request with retries. Non-200 answers are errors. For
// dashboard server calls the response hash is checked over the raw
// body before it is decompressed.
func (c *Client) do(ctx context.Context, method, url string, dashboard bool) ([]byte, int, error) {
	var (
		body []byte
		code int
	)
	err := utils.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Accept-Encoding", "gzip")
		if dashboard {
			req.Header.Set("Accept", "application/json")
			if c.realIP != "" {
				req.Header.Set("X-Real-IP", c.realIP)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		code = resp.StatusCode

		if dashboard && c.key != "" {
			got := resp.Header.Get(utils.HashHeader)
			if got == "" || !utils.VerifyHash(raw, c.key, got) {
				return fmt.Errorf("response hash mismatch from %s", url)
			}
		}

		if resp.Header.Get("Content-Encoding") == "gzip" {
			zr, err := gzip.NewReader(bytes.NewReader(raw))
			if err != nil {
				return fmt.Errorf("gzip reader: %w", err)
			}
			defer zr.Close()
			if raw, err = io.ReadAll(zr); err != nil {
				return fmt.Errorf("gzip read: %w", err)
			}
		}

		body = raw
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if code != http.StatusOK {
		c.logger.Debugw("unexpected status", "url", url, "status", code, "body", string(body))
		return nil, code, fmt.Errorf("unexpected status from %s: %d", url, code)
	}
	return body, code, nil
}
