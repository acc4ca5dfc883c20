package dashboard

import (
	"math"
	"strconv"

	"github.com/and161185/linstor-dashboard/internal/units"
	"github.com/and161185/linstor-dashboard/model"
)

// Reduce combines the per-family aggregations into the summary card counts.
func Reduce(node, resource, volume model.Aggregation, errorReports Lookup) model.SummaryCounts {
	return model.SummaryCounts{
		Node:        len(node.Metrics),
		Resource:    len(resource.Metrics),
		Volume:      len(volume.Metrics),
		ErrorReport: errorReportCount(errorReports),
	}
}

func errorReportCount(l Lookup) int {
	if !l.Found || len(l.Family.Metrics) == 0 {
		return 0
	}
	n, ok := parseInteger(l.Family.Metrics[0].Value)
	if !ok {
		return 0
	}
	return n
}

// ReduceCapacity sums storage pool capacity. It returns nil unless both
// capacity families are present.
func ReduceCapacity(total, free Lookup) *model.Capacity {
	if !total.Found || !free.Found {
		return nil
	}

	c := &model.Capacity{
		TotalBytes: sumBytes(total.Family),
		FreeBytes:  sumBytes(free.Family),
	}
	c.Total = units.FormatBytes(c.TotalBytes)
	c.Free = units.FormatBytes(c.FreeBytes)
	if c.TotalBytes > 0 && c.FreeBytes <= c.TotalBytes {
		used := float64(c.TotalBytes-c.FreeBytes) / float64(c.TotalBytes) * 100
		c.UsedPct = units.Round(used, 1)
	}
	return c
}

func sumBytes(family model.MetricFamily) uint64 {
	var sum uint64
	for _, obs := range family.Metrics {
		v, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil || math.IsNaN(v) || v <= 0 || math.IsInf(v, 0) {
			continue
		}
		sum += uint64(v)
	}
	return sum
}
