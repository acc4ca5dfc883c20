package inmemory

import (
	"context"
	"testing"
)

func BenchmarkApply(b *testing.B) {
	ctx := context.Background()
	st := NewMemStorage(100, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = st.Apply(ctx, snap(uint64(i+1), i))
	}
}

func BenchmarkHistory(b *testing.B) {
	ctx := context.Background()
	st := NewMemStorage(100, nil)
	for i := 1; i <= 100; i++ {
		_ = st.Apply(ctx, snap(uint64(i), i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = st.History(ctx, 50)
	}
}
