// Package transport holds http.RoundTripper decorators used by the dashboard client.
package transport

import (
	"bytes"
	"io"
	"net/http"

	"github.com/and161185/linstor-dashboard/internal/utils"
)

// SignRoundTripper adds the HashSHA256 header computed over the request body.
// Requests pass through untouched when Key is empty.
type SignRoundTripper struct {
	Base http.RoundTripper
	Key  string
}

func (s *SignRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := s.Base
	if rt == nil {
		rt = http.DefaultTransport
	}
	if s.Key == "" {
		return rt.RoundTrip(req)
	}

	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		body = b
	}

	// RoundTrippers must not mutate the caller's request.
	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.ContentLength = int64(len(body))
	out.Header.Set(utils.HashHeader, utils.CalculateHash(body, s.Key))

	return rt.RoundTrip(out)
}
