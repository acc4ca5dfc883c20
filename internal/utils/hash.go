package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashHeader carries the hex HMAC-SHA256 of a request or response body.
const HashHeader = "HashSHA256"

// CalculateHash returns the hex encoded HMAC-SHA256 of body under key.
func CalculateHash(body []byte, key string) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHash reports whether got is the hash of body under key.
func VerifyHash(body []byte, key, got string) bool {
	want := CalculateHash(body, key)
	return hmac.Equal([]byte(want), []byte(got))
}
