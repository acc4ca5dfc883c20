package utils

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestCalculateHash(t *testing.T) {
	b := []byte("payload")
	k := "key"

	h := hmac.New(sha256.New, []byte(k))
	_, _ = h.Write(b)
	expect := hex.EncodeToString(h.Sum(nil))

	require.Equal(t, expect, CalculateHash(b, k))
	require.NotEqual(t, CalculateHash(b, "other"), CalculateHash(b, k))
	require.True(t, VerifyHash(b, k, expect))
	require.False(t, VerifyHash(b, "other", expect))
	require.False(t, VerifyHash(b, k, ""))
}

type tempErr struct{}

func (tempErr) Error() string   { return "temp" }
func (tempErr) Timeout() bool   { return true } // net.Error
func (tempErr) Temporary() bool { return true }

func withFastRetries(t *testing.T) {
	t.Helper()
	old := retryDelays
	retryDelays = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	t.Cleanup(func() { retryDelays = old })
}

func TestWithRetry_RetriesAndSucceeds(t *testing.T) {
	withFastRetries(t)

	var n int
	err := WithRetry(context.Background(), func() error {
		n++
		if n < 3 {
			return tempErr{}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestWithRetry_GivesUp(t *testing.T) {
	withFastRetries(t)

	var n int
	err := WithRetry(context.Background(), func() error {
		n++
		return tempErr{}
	})
	require.Error(t, err)
	require.Equal(t, 4, n)
}

func TestWithRetry_NotRetriable(t *testing.T) {
	withFastRetries(t)

	boom := errors.New("boom")
	var n int
	err := WithRetry(context.Background(), func() error {
		n++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, n)
}

func TestWithRetry_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var n int
	err := WithRetry(ctx, func() error {
		n++
		return tempErr{}
	})
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, n)
}

func TestIsRetriable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"pg-conn-failure", &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, true},
		{"pg-unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, false},
		{"net-error", &net.DNSError{Err: "x"}, true},
		{"os-deadline", os.ErrDeadlineExceeded, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, isRetriable(tc.err))
		})
	}
}
