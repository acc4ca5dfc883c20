package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveTrusted(t *testing.T, cidr string, prepare func(r *http.Request)) int {
	t.Helper()
	mw, err := TrustedCIDR(cidr)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/refresh", nil)
	prepare(req)
	rr := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rr, req)
	return rr.Code
}

func TestTrustedCIDR(t *testing.T) {
	tests := []struct {
		name    string
		cidr    string
		prepare func(r *http.Request)
		want    int
	}{
		{"empty_allows_all", "", func(*http.Request) {}, http.StatusOK},
		{"inside", "10.0.0.0/24", func(r *http.Request) { r.Header.Set("X-Real-IP", "10.0.0.42") }, http.StatusOK},
		{"outside", "10.0.0.0/24", func(r *http.Request) { r.Header.Set("X-Real-IP", "192.168.1.10") }, http.StatusForbidden},
		{"garbage_header", "10.0.0.0/24", func(r *http.Request) { r.Header.Set("X-Real-IP", "nope") }, http.StatusForbidden},
		{"remote_addr_fallback", "192.0.2.0/24", func(r *http.Request) { r.RemoteAddr = "192.0.2.7:5555" }, http.StatusOK},
		{"remote_addr_outside", "10.0.0.0/8", func(r *http.Request) { r.RemoteAddr = "192.0.2.7:5555" }, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, serveTrusted(t, tc.cidr, tc.prepare))
		})
	}
}

func TestTrustedCIDR_Invalid(t *testing.T) {
	_, err := TrustedCIDR("wtf")
	require.Error(t, err)
}
