// Package inmemory keeps snapshots in process memory with optional file persistence.
package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/linstor-dashboard/internal/errs"
	"github.com/and161185/linstor-dashboard/model"
	"github.com/and161185/linstor-dashboard/storage"
	"go.uber.org/zap"
)

// DefaultHistoryLimit applies when the configured limit is not positive.
const DefaultHistoryLimit = 100

// MemStorage holds the latest snapshot and a ring of the most recent ones.
type MemStorage struct {
	mu      sync.RWMutex
	history []model.Snapshot // oldest first
	limit   int
	guard   storage.SequenceGuard
	logger  *zap.SugaredLogger
}

// NewMemStorage creates a store that keeps up to historyLimit snapshots.
func NewMemStorage(historyLimit int, logger *zap.SugaredLogger) *MemStorage {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &MemStorage{limit: historyLimit, logger: logger}
}

func (store *MemStorage) Apply(ctx context.Context, snap *model.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("apply: nil snapshot")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if err := store.guard.Admit(snap.Sequence); err != nil {
		return err
	}
	store.push(*snap)
	return nil
}

func (store *MemStorage) push(snap model.Snapshot) {
	store.history = append(store.history, snap)
	if over := len(store.history) - store.limit; over > 0 {
		store.history = append(store.history[:0:0], store.history[over:]...)
	}
}

func (store *MemStorage) Latest(ctx context.Context) (*model.Snapshot, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if len(store.history) == 0 {
		return nil, errs.ErrSnapshotNotFound
	}
	latest := store.history[len(store.history)-1]
	return &latest, nil
}

func (store *MemStorage) History(ctx context.Context, limit int) ([]model.Snapshot, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	n := len(store.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	result := make([]model.Snapshot, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, store.history[i])
	}
	return result, nil
}

func (store *MemStorage) Ping(ctx context.Context) error {
	return nil
}

// SaveToFile writes the history as JSON. An empty store writes nothing.
func (store *MemStorage) SaveToFile(ctx context.Context, filePath string) error {
	store.mu.RLock()
	snapshots := append([]model.Snapshot(nil), store.history...)
	store.mu.RUnlock()

	if len(snapshots) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshots: %w", err)
	}

	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}

	store.logger.Infow("snapshots saved", "path", filePath, "count", len(snapshots))
	return nil
}

// LoadFromFile restores snapshots written by SaveToFile. A missing file is not an error.
func (store *MemStorage) LoadFromFile(ctx context.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	var snapshots []model.Snapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return fmt.Errorf("failed to unmarshal snapshots: %w", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	for _, s := range snapshots {
		store.guard.Observe(s.Sequence)
		store.push(s)
	}

	store.logger.Infow("snapshots loaded", "path", filePath, "count", len(snapshots))
	return nil
}

// LastSequence returns the highest sequence held by the store.
func (store *MemStorage) LastSequence() uint64 {
	return store.guard.Last()
}
