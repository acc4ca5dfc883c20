package dashboard

import (
	"fmt"
	"io"
	"time"

	"github.com/and161185/linstor-dashboard/internal/errs"
	"github.com/and161185/linstor-dashboard/internal/exposition"
	"github.com/and161185/linstor-dashboard/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Family names exported by the LINSTOR controller.
const (
	NodeStateFamily     = "linstor_node_state"
	ResourceStateFamily = "linstor_resource_state"
	VolumeStateFamily   = "linstor_volume_state"
	ErrorReportsFamily  = "linstor_error_reports_count"

	PoolCapacityTotalFamily = "linstor_storage_pool_capacity_total_bytes"
	PoolCapacityFreeFamily  = "linstor_storage_pool_capacity_free_bytes"
)

// LegendSize is the number of buckets rendered as legend strings.
const LegendSize = 2

// Lookup is the result of searching a family by name.
type Lookup struct {
	Found  bool
	Family model.MetricFamily
}

// Find looks a family up by name.
func Find(families []model.MetricFamily, name string) Lookup {
	for _, f := range families {
		if f.Name == name {
			return Lookup{Found: true, Family: f}
		}
	}
	return Lookup{}
}

func lookupRequired(families []model.MetricFamily, name string) (model.MetricFamily, error) {
	l := Find(families, name)
	if !l.Found {
		return model.MetricFamily{}, fmt.Errorf("%w: %s", errs.ErrFamilyNotFound, name)
	}
	return l.Family, nil
}

// Build derives a snapshot from parsed families. Either every part of the
// snapshot is produced or an error is returned.
func Build(families []model.MetricFamily) (*model.Snapshot, error) {
	nodeFamily, err := lookupRequired(families, NodeStateFamily)
	if err != nil {
		return nil, err
	}
	resourceFamily, err := lookupRequired(families, ResourceStateFamily)
	if err != nil {
		return nil, err
	}
	volumeFamily, err := lookupRequired(families, VolumeStateFamily)
	if err != nil {
		return nil, err
	}

	node := Aggregate(nodeFamily)
	resource := Aggregate(resourceFamily)
	volume := Aggregate(volumeFamily)

	return &model.Snapshot{
		Summary:   Reduce(node, resource, volume, Find(families, ErrorReportsFamily)),
		Nodes:     chart(node),
		Resources: chart(resource),
		Volumes:   chart(volume),
		Capacity: ReduceCapacity(
			Find(families, PoolCapacityTotalFamily),
			Find(families, PoolCapacityFreeFamily),
		),
	}, nil
}

func chart(a model.Aggregation) model.ChartData {
	return model.ChartData{
		Data:   a.PieChartData,
		Legend: Legend(a.PieChartData, LegendSize),
	}
}

// Pipeline runs parsing and aggregation for fetched payloads.
type Pipeline struct {
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewPipeline creates a pipeline logging through the given logger.
func NewPipeline(logger *zap.SugaredLogger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pipeline{logger: logger, now: time.Now}
}

// Run parses the payload and builds a snapshot stamped with a fresh ID and
// the fetch time. Failures are logged and returned; no partial snapshot is produced.
func (p *Pipeline) Run(r io.Reader) (*model.Snapshot, error) {
	families, err := exposition.Parse(r)
	if err != nil {
		p.logger.Errorw("metrics unavailable: parse failed", "error", err)
		return nil, err
	}

	snap, err := Build(families)
	if err != nil {
		p.logger.Errorw("metrics unavailable: build failed", "error", err, "families", len(families))
		return nil, err
	}

	snap.ID = uuid.NewString()
	snap.FetchedAt = p.now().UTC()

	p.logger.Debugw("snapshot built",
		"id", snap.ID,
		"nodes", snap.Summary.Node,
		"resources", snap.Summary.Resource,
		"volumes", snap.Summary.Volume,
		"errorReports", snap.Summary.ErrorReport,
	)
	return snap, nil
}
