package dashboard

import (
	"fmt"
	"math"
	"strconv"

	"github.com/and161185/linstor-dashboard/model"
)

// UndefinedBucket collects observations whose state code has no label.
const UndefinedBucket = "undefined"

// NodeLabel is the label identifying the node an observation belongs to.
const NodeLabel = "node"

// Categorize decodes every observation of the family with the given state map.
func Categorize(family model.MetricFamily, stateMap model.StateMap) []model.CategorizedMetric {
	result := make([]model.CategorizedMetric, 0, len(family.Metrics))

	for _, obs := range family.Metrics {
		cm := model.CategorizedMetric{Node: obs.Labels[NodeLabel]}

		state, ok := parseInteger(obs.Value)
		if ok {
			cm.State = state
			cm.StateStr, cm.Known = stateMap[strconv.Itoa(state)]
		}
		if !cm.Known {
			cm.StateStr = UndefinedBucket
		}

		result = append(result, cm)
	}

	return result
}

// Aggregate builds the state map from the family help text, categorizes the
// observations and counts them per label in first-seen order.
func Aggregate(family model.MetricFamily) model.Aggregation {
	stateMap := BuildStateMap(family.Help)
	metrics := Categorize(family, stateMap)

	return model.Aggregation{
		Metrics:      metrics,
		PieChartData: countByState(metrics),
		StateMap:     stateMap,
	}
}

func countByState(metrics []model.CategorizedMetric) []model.PieDatum {
	data := make([]model.PieDatum, 0)
	index := make(map[string]int)

	for _, m := range metrics {
		i, ok := index[m.StateStr]
		if !ok {
			i = len(data)
			index[m.StateStr] = i
			data = append(data, model.PieDatum{X: m.StateStr})
		}
		data[i].Y++
	}

	return data
}

// Legend renders up to n buckets as "label: count".
func Legend(data []model.PieDatum, n int) []string {
	if n > len(data) {
		n = len(data)
	}
	if n < 0 {
		n = 0
	}

	legend := make([]string, 0, n)
	for _, d := range data[:n] {
		legend = append(legend, fmt.Sprintf("%s: %d", d.X, d.Y))
	}
	return legend
}

// parseInteger returns the integer part of a sample value.
func parseInteger(value string) (int, bool) {
	if i, err := strconv.Atoi(value); err == nil {
		return i, true
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= math.MaxInt || f < math.MinInt {
		return 0, false
	}
	return int(math.Trunc(f)), true
}
