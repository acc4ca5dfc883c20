// Package linstor resolves LINSTOR controller endpoints and talks to the
// controller REST API.
package linstor

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	// DefaultHTTPPort is the controller REST port for plain HTTP.
	DefaultHTTPPort = "3370"
	// DefaultHTTPSPort is the controller REST port for HTTPS.
	DefaultHTTPSPort = "3371"
)

var errEmptyEndpoint = errors.New("empty LINSTOR endpoint")

// ResolveEndpoint turns a controller address into a base URL. It accepts
// "host", "host:port", "scheme://host[:port]" and comma separated
// LS_CONTROLLERS lists, in which case the first non-empty entry wins.
func ResolveEndpoint(raw string) (*url.URL, error) {
	var entry string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			entry = part
			break
		}
	}
	if entry == "" {
		return nil, errEmptyEndpoint
	}

	if !strings.Contains(entry, "://") {
		entry = "http://" + entry
	}

	u, err := url.Parse(entry)
	if err != nil {
		return nil, fmt.Errorf("parse LINSTOR endpoint %q: %w", raw, err)
	}

	switch u.Scheme {
	case "http", "linstor":
		u.Scheme = "http"
	case "https", "linstor+ssl":
		u.Scheme = "https"
	default:
		return nil, fmt.Errorf("unsupported LINSTOR endpoint scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("LINSTOR endpoint %q has no host", raw)
	}

	if u.Port() == "" {
		port := DefaultHTTPPort
		if u.Scheme == "https" {
			port = DefaultHTTPSPort
		}
		u.Host = net.JoinHostPort(u.Hostname(), port)
	}

	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// MetricsURL returns the address of the exposition endpoint below base.
func MetricsURL(base *url.URL, path string) string {
	if path == "" {
		path = "/metrics"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base.JoinPath(path).String()
}
