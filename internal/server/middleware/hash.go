package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/and161185/linstor-dashboard/internal/utils"
)

// VerifyHashMiddleware rejects requests whose HashSHA256 header does not
// match the body and signs every response body with the same key. It is a
// no-op when key is empty.
func VerifyHashMiddleware(key string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			if got := r.Header.Get(utils.HashHeader); got != "" && !utils.VerifyHash(bodyBytes, key, got) {
				http.Error(w, "invalid hash", http.StatusBadRequest)
				return
			}

			capture := &responseCapture{header: make(http.Header), status: http.StatusOK}
			next.ServeHTTP(capture, r)

			for k, v := range capture.header {
				w.Header()[k] = v
			}
			w.Header().Set(utils.HashHeader, utils.CalculateHash(capture.body.Bytes(), key))
			w.WriteHeader(capture.status)
			_, _ = w.Write(capture.body.Bytes())
		})
	}
}

// responseCapture buffers the response so the hash header can be set
// before anything reaches the client.
type responseCapture struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func (r *responseCapture) Header() http.Header { return r.header }

func (r *responseCapture) WriteHeader(code int) { r.status = code }

func (r *responseCapture) Write(b []byte) (int, error) {
	return r.body.Write(b)
}
