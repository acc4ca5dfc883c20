package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		from  Unit
		to    Unit
		want  float64
	}{
		{"kib_to_mib", 2048, KiB, MiB, 2},
		{"gib_to_kib", 1, GiB, KiB, 1048576},
		{"tib_to_gib", 1.5, TiB, GiB, 1536},
		{"same_unit", 42, MiB, MiB, 42},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, Convert(tc.value, tc.from, tc.to), 1e-9)
		})
	}
}

func TestConvertRounded(t *testing.T) {
	require.InDelta(t, 1.33, ConvertRounded(1365, KiB, MiB), 1e-9)
	require.InDelta(t, 0.01, ConvertRounded(10, MiB, GiB), 1e-9)
}

func TestRound(t *testing.T) {
	require.InDelta(t, 3.1, Round(3.14159, 1), 1e-9)
	require.InDelta(t, 3.14, Round(3.14159, 2), 1e-9)
	require.InDelta(t, 3.0, Round(2.5, 0), 1e-9)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 * (1 << 30) / 2, "1.5 GiB"},
		{150 << 30, "150 GiB"},
		{2 << 40, "2.0 TiB"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, FormatBytes(tc.in))
	}
}

func TestUnitString(t *testing.T) {
	require.Equal(t, "GiB", GiB.String())
	require.Equal(t, "3B", Unit(3).String())
}
