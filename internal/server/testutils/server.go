// Package testutils builds servers wired to in-memory dependencies for tests.
package testutils

import (
	"context"
	"sync"

	"github.com/and161185/linstor-dashboard/internal/config"
	"github.com/and161185/linstor-dashboard/internal/linstor"
	"github.com/and161185/linstor-dashboard/internal/server"
	"github.com/and161185/linstor-dashboard/model"
	"github.com/and161185/linstor-dashboard/storage/inmemory"
	"go.uber.org/zap"
)

// Exposition is a controller payload with three nodes, four resources,
// two volumes and four error reports.
const Exposition = `# HELP linstor_node_state 0="OFFLINE", 1="ONLINE"
# TYPE linstor_node_state gauge
linstor_node_state{node="a"} 1
linstor_node_state{node="b"} 1
linstor_node_state{node="c"} 0
# HELP linstor_resource_state 0="UNKNOWN", 1="UPTODATE", 2="DISKLESS"
# TYPE linstor_resource_state gauge
linstor_resource_state{node="a",resource="r1"} 1
linstor_resource_state{node="b",resource="r1"} 2
linstor_resource_state{node="c",resource="r1"} 9
linstor_resource_state{node="a",resource="r2"} 1
# HELP linstor_volume_state 0="UNKNOWN", 1="UPTODATE"
# TYPE linstor_volume_state gauge
linstor_volume_state{node="a",resource="r1",volume="0"} 1
linstor_volume_state{node="b",resource="r1",volume="0"} 1
# HELP linstor_error_reports_count Number of error reports
# TYPE linstor_error_reports_count counter
linstor_error_reports_count 4
`

// StubRefresher applies a fixed snapshot, or fails with Err.
type StubRefresher struct {
	mu     sync.Mutex
	Store  server.Storage
	Next   *model.Snapshot
	Err    error
	Calls  int
	Health model.FetchStatus
}

func (s *StubRefresher) Refresh(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		s.Health.Connected = false
		s.Health.LastError = s.Err.Error()
		return nil, s.Err
	}
	snap := *s.Next
	snap.Sequence = uint64(s.Calls)
	if s.Store != nil {
		if err := s.Store.Apply(ctx, &snap); err != nil {
			return nil, err
		}
	}
	s.Health = model.FetchStatus{Connected: true}
	return &snap, nil
}

func (s *StubRefresher) Status() model.FetchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Health
}

// StubController returns Info or Err.
type StubController struct {
	Info linstor.ControllerInfo
	Err  error
}

func (s StubController) Version(context.Context) (linstor.ControllerInfo, error) {
	return s.Info, s.Err
}

// NewTestServer returns a server backed by an empty in-memory store.
func NewTestServer() (*server.Server, *inmemory.MemStorage) {
	store := inmemory.NewMemStorage(10, nil)
	cfg := &config.ServerConfig{
		Addr:          "127.0.0.1:0",
		StoreInterval: 1,
		HistoryLimit:  10,
		Logger:        zap.NewNop().Sugar(),
	}
	srv := server.NewServer(store, &StubRefresher{Store: store}, cfg)
	srv.FileStore = store
	return srv, store
}
