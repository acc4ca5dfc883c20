// Package model contains core data types for the project.
package model

import "time"

// Observation is one sample line of a metric family.
type Observation struct {
	Value  string            `json:"value"`  // Sample value as rendered in the exposition text.
	Labels map[string]string `json:"labels"` // Label set of the sample.
}

// MetricFamily groups the samples sharing one HELP/TYPE declaration.
type MetricFamily struct {
	Name    string        `json:"name"`
	Help    string        `json:"help"`
	Type    string        `json:"type"`
	Metrics []Observation `json:"metrics"`
}

// StateMap maps a numeric state code (as string) to its lowercased label.
type StateMap map[string]string

// CategorizedMetric is an observation annotated with its decoded state label.
type CategorizedMetric struct {
	Node     string `json:"node,omitempty"`
	State    int    `json:"state"`
	StateStr string `json:"stateStr"`
	Known    bool   `json:"known"` // false when the code has no StateMap entry
}

// PieDatum is one aggregated chart bucket.
type PieDatum struct {
	X string `json:"x"` // State label.
	Y int    `json:"y"` // Number of observations in the state.
}

// Aggregation is the per-family result of categorizing and counting observations.
type Aggregation struct {
	Metrics      []CategorizedMetric `json:"metrics"`
	PieChartData []PieDatum          `json:"pieChartData"`
	StateMap     StateMap            `json:"stateMap"`
}

// SummaryCounts holds the numbers shown on the summary cards.
type SummaryCounts struct {
	Node        int `json:"node"`
	Resource    int `json:"resource"`
	Volume      int `json:"volume"`
	ErrorReport int `json:"errorReport"`
}

// ChartData is the chart-ready view of one family.
type ChartData struct {
	Data   []PieDatum `json:"data"`
	Legend []string   `json:"legend"`
}

// Capacity sums the storage pool capacity reported by the controller.
type Capacity struct {
	TotalBytes uint64  `json:"totalBytes"`
	FreeBytes  uint64  `json:"freeBytes"`
	Total      string  `json:"total"` // Human readable, e.g. "1.5 TiB".
	Free       string  `json:"free"`
	UsedPct    float64 `json:"usedPct"`
}

// Snapshot is the complete dashboard state derived from one metrics fetch.
type Snapshot struct {
	ID        string        `json:"id"`
	Sequence  uint64        `json:"sequence"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Summary   SummaryCounts `json:"summary"`
	Nodes     ChartData     `json:"nodes"`
	Resources ChartData     `json:"resources"`
	Volumes   ChartData     `json:"volumes"`
	Capacity  *Capacity     `json:"capacity,omitempty"`
}

// EmptySnapshot is rendered while no metrics have been received yet.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Nodes:     ChartData{Data: []PieDatum{}, Legend: []string{}},
		Resources: ChartData{Data: []PieDatum{}, Legend: []string{}},
		Volumes:   ChartData{Data: []PieDatum{}, Legend: []string{}},
	}
}

// ViewState tells the page whether derived data is available.
type ViewState string

const (
	AwaitingData  ViewState = "awaiting_data"
	DataAvailable ViewState = "data_available"
)

// FetchStatus describes the outcome of the most recent metrics fetches.
type FetchStatus struct {
	Connected   bool      `json:"connected"`
	LastAttempt time.Time `json:"lastAttempt,omitempty"`
	LastSuccess time.Time `json:"lastSuccess,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
}

// DashboardView is the payload of the dashboard endpoint.
type DashboardView struct {
	State    ViewState   `json:"state"`
	Status   FetchStatus `json:"status"`
	Snapshot Snapshot    `json:"snapshot"`
}
