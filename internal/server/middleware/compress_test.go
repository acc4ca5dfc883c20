package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func gunzip(t *testing.T, b []byte) string {
	t.Helper()
	gr, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer gr.Close()
	out, err := io.ReadAll(gr)
	require.NoError(t, err)
	return string(out)
}

func TestCompressMiddleware_SkipWhenNoAcceptGzip(t *testing.T) {
	h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"node":3}`))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "", rr.Header().Get("Content-Encoding"))
	require.Equal(t, `{"node":3}`, rr.Body.String())
}

func TestCompressMiddleware_GzipJSON(t *testing.T) {
	h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"state":`))
		_, _ = w.Write([]byte(`"awaiting_data"}`))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	require.Equal(t, "Accept-Encoding", rr.Header().Get("Vary"))
	require.Equal(t, `{"state":"awaiting_data"}`, gunzip(t, rr.Body.Bytes()))
}

func TestCompressMiddleware_DetectsHTML(t *testing.T) {
	h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Nodes: 3</body></html>"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	require.Equal(t, "<html><body>Nodes: 3</body></html>", gunzip(t, rr.Body.Bytes()))
}

func TestCompressMiddleware_BinaryUntouched(t *testing.T) {
	h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 0x50})
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "", rr.Header().Get("Content-Encoding"))
	require.Equal(t, []byte{0x89, 0x50}, rr.Body.Bytes())
}

func TestCompressMiddleware_PlainTextExposition(t *testing.T) {
	const text = "# TYPE linstor_error_reports_count counter\nlinstor_error_reports_count 4\n"
	h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(text))
	}))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	require.Equal(t, text, gunzip(t, rr.Body.Bytes()))
}

func TestGzipResponseWriter_Close_NoWrites(t *testing.T) {
	rw := httptest.NewRecorder()
	grw := &gzipResponseWriter{ResponseWriter: rw}
	require.NoError(t, grw.Close())
	require.Equal(t, "", rw.Header().Get("Content-Encoding"))
}
