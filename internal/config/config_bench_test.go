package config

import (
	"os"
	"testing"
)

func BenchmarkReadServerEnvironment(b *testing.B) {
	_ = os.Setenv("ADDRESS", "127.0.0.1:9999")
	_ = os.Setenv("LS_CONTROLLERS", "http://ctrl:3370")
	_ = os.Setenv("STORE_INTERVAL", "5")
	_ = os.Setenv("RESTORE", "false")
	defer func() {
		for _, k := range []string{"ADDRESS", "LS_CONTROLLERS", "STORE_INTERVAL", "RESTORE"} {
			_ = os.Unsetenv(k)
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := &ServerConfig{}
		readServerEnvironment(cfg)
	}
}

func BenchmarkReadClientEnvironment(b *testing.B) {
	_ = os.Setenv("LS_CONTROLLERS", "http://ctrl:3370")
	_ = os.Setenv("CLIENT_TIMEOUT", "5")
	defer func() {
		_ = os.Unsetenv("LS_CONTROLLERS")
		_ = os.Unsetenv("CLIENT_TIMEOUT")
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := &ClientConfig{}
		readClientEnvironment(cfg)
	}
}
