package linstor

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	lapi "github.com/LINBIT/golinstor/client"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ControllerOptions configures the REST client.
type ControllerOptions struct {
	Endpoint      string
	Timeout       time.Duration
	RPS           float64 // 0 disables the limit
	Burst         int
	SkipTLSVerify bool
	UserAgent     string
}

// ControllerInfo is the controller build reported by /v1/controller/version.
type ControllerInfo struct {
	Version        string `json:"version"`
	GitHash        string `json:"gitHash"`
	BuildTime      string `json:"buildTime"`
	RestAPIVersion string `json:"restApiVersion"`
	Endpoint       string `json:"endpoint"`
}

// Controller queries the LINSTOR controller REST API.
type Controller struct {
	client   *lapi.Client
	endpoint string
	logger   *zap.SugaredLogger
}

// NewController builds a rate limited golinstor client for the endpoint.
func NewController(opts ControllerOptions, logger *zap.SugaredLogger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	base, err := ResolveEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}

	r := rate.Limit(opts.RPS)
	if r <= 0 {
		r = rate.Inf
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "linstor-dashboard"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.SkipTLSVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := lapi.NewClient(
		lapi.BaseURL(base),
		lapi.HTTPClient(&http.Client{Timeout: opts.Timeout, Transport: transport}),
		lapi.Limit(r, burst),
		lapi.UserAgent(ua),
		lapi.Log(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create LINSTOR client: %w", err)
	}

	return &Controller{client: client, endpoint: base.String(), logger: logger}, nil
}

// Endpoint returns the resolved base URL.
func (c *Controller) Endpoint() string {
	return c.endpoint
}

// Version asks the controller for its build information.
func (c *Controller) Version(ctx context.Context) (ControllerInfo, error) {
	v, err := c.client.Controller.GetVersion(ctx)
	if err != nil {
		c.logger.Warnw("controller version request failed", "endpoint", c.endpoint, "error", err)
		return ControllerInfo{}, fmt.Errorf("get controller version: %w", err)
	}
	return ControllerInfo{
		Version:        v.Version,
		GitHash:        v.GitHash,
		BuildTime:      v.BuildTime,
		RestAPIVersion: v.RestApiVersion,
		Endpoint:       c.endpoint,
	}, nil
}
