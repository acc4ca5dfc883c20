// Package exposition parses the Prometheus text exposition format into model families.
package exposition

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/and161185/linstor-dashboard/internal/errs"
	"github.com/and161185/linstor-dashboard/model"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const maxLineSize = 1024 * 1024

// Parse reads exposition text and returns one family per distinct name in first-seen order.
func Parse(r io.Reader) ([]model.MetricFamily, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read exposition: %w", err)
	}

	var parser expfmt.TextParser
	byName, err := parser.TextToMetricFamilies(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedExposition, err)
	}

	order, err := familyOrder(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedExposition, err)
	}

	return orderFamilies(byName, order), nil
}

// orderFamilies converts byName following order. Families the order scan
// could not name go last, sorted for stable output.
func orderFamilies(byName map[string]*dto.MetricFamily, order []string) []model.MetricFamily {
	result := make([]model.MetricFamily, 0, len(byName))
	done := make(map[string]struct{}, len(byName))
	for _, name := range order {
		mf, ok := byName[name]
		if !ok {
			continue
		}
		if _, dup := done[name]; dup {
			continue
		}
		done[name] = struct{}{}
		result = append(result, convertFamily(mf))
	}

	rest := make([]string, 0, len(byName)-len(done))
	for name := range byName {
		if _, ok := done[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		result = append(result, convertFamily(byName[name]))
	}
	return result
}

// ParseString is Parse for an in-memory payload.
func ParseString(s string) ([]model.MetricFamily, error) {
	return Parse(strings.NewReader(s))
}

// familyOrder lists family names in the order they first appear in the text.
// Sample names of summaries and histograms carry suffixes, so every candidate
// is recorded together with its suffix-stripped base name.
func familyOrder(raw []byte) ([]string, error) {
	seen := make(map[string]struct{})
	var order []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			fields := strings.Fields(line)
			if len(fields) >= 3 && (fields[1] == "HELP" || fields[1] == "TYPE") {
				add(unquoteName(fields[2]))
			}
			continue
		}
		name := sampleName(line)
		add(name)
		for _, suffix := range []string{"_bucket", "_count", "_sum"} {
			if base, ok := strings.CutSuffix(name, suffix); ok {
				add(base)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan exposition: %w", err)
	}
	return order, nil
}

// sampleName returns the metric name of a sample line, including the quoted
// form used for UTF-8 names: {"a.b",label="v"} 1.
func sampleName(line string) string {
	if rest, ok := strings.CutPrefix(line, "{"); ok && strings.HasPrefix(rest, `"`) {
		if end := closingQuote(rest); end > 0 {
			return unquoteName(rest[:end+1])
		}
		return ""
	}
	if i := strings.IndexAny(line, "{ \t"); i >= 0 {
		return line[:i]
	}
	return line
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func unquoteName(name string) string {
	if !strings.HasPrefix(name, `"`) {
		return name
	}
	if v, err := strconv.Unquote(name); err == nil {
		return v
	}
	return ""
}

func convertFamily(mf *dto.MetricFamily) model.MetricFamily {
	family := model.MetricFamily{
		Name:    mf.GetName(),
		Help:    mf.GetHelp(),
		Type:    strings.ToLower(mf.GetType().String()),
		Metrics: make([]model.Observation, 0, len(mf.GetMetric())),
	}

	for _, m := range mf.GetMetric() {
		labels := make(map[string]string, len(m.GetLabel()))
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		family.Metrics = append(family.Metrics, model.Observation{
			Value:  formatValue(sampleValue(mf.GetType(), m)),
			Labels: labels,
		})
	}
	return family
}

func sampleValue(typ dto.MetricType, m *dto.Metric) float64 {
	switch typ {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_SUMMARY:
		return float64(m.GetSummary().GetSampleCount())
	case dto.MetricType_HISTOGRAM, dto.MetricType_GAUGE_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return m.GetUntyped().GetValue()
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
