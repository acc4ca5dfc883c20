package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/and161185/linstor-dashboard/internal/utils"
)

func BenchmarkVerifyHashMiddleware_Valid(b *testing.B) {
	body := []byte(`{"limit":10}`)
	key := "supersecret"
	hash := utils.CalculateHash(body, key)

	handler := VerifyHashMiddleware(key)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("HashSHA256", hash)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
}
