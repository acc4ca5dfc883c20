// Package units converts storage sizes between binary units.
package units

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Unit is a binary size unit expressed in bytes.
type Unit uint64

const (
	B   Unit = 1
	KiB Unit = 1 << 10
	MiB Unit = 1 << 20
	GiB Unit = 1 << 30
	TiB Unit = 1 << 40
)

var unitNames = map[Unit]string{
	B:   "B",
	KiB: "KiB",
	MiB: "MiB",
	GiB: "GiB",
	TiB: "TiB",
}

func (u Unit) String() string {
	if s, ok := unitNames[u]; ok {
		return s
	}
	return fmt.Sprintf("%dB", uint64(u))
}

// Convert converts value expressed in from into to.
func Convert(value float64, from, to Unit) float64 {
	return value * float64(from) / float64(to)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ConvertRounded converts and rounds to two decimal places.
func ConvertRounded(value float64, from, to Unit) float64 {
	return Round(Convert(value, from, to), 2)
}

// FormatBytes renders b in the largest fitting binary unit, e.g. "1.5 GiB".
func FormatBytes(b uint64) string {
	return humanize.IBytes(b)
}
