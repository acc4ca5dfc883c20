// Package poller periodically fetches LINSTOR controller metrics and turns
// them into dashboard snapshots.
package poller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/and161185/linstor-dashboard/internal/dashboard"
	"github.com/and161185/linstor-dashboard/internal/errs"
	"github.com/and161185/linstor-dashboard/internal/utils"
	"github.com/and161185/linstor-dashboard/model"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type snapshotStore interface {
	Apply(ctx context.Context, snap *model.Snapshot) error
}

// Options configures a Poller.
type Options struct {
	MetricsURL string
	Interval   time.Duration
	Timeout    time.Duration
	HTTPClient *http.Client // optional
	Registerer prometheus.Registerer
}

// Poller fetches the exposition endpoint and applies derived snapshots to a store.
type Poller struct {
	url        string
	interval   time.Duration
	timeout    time.Duration
	httpClient *http.Client
	store      snapshotStore
	pipeline   *dashboard.Pipeline
	logger     *zap.SugaredLogger
	metrics    *pollerMetrics
	now        func() time.Time

	seq     atomic.Uint64
	refresh singleflight.Group

	mu     sync.RWMutex
	status model.FetchStatus
}

// New creates a Poller. A nil Registerer keeps the self metrics unregistered.
func New(opts Options, store snapshotStore, logger *zap.SugaredLogger) *Poller {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Poller{
		url:        opts.MetricsURL,
		interval:   opts.Interval,
		timeout:    opts.Timeout,
		httpClient: hc,
		store:      store,
		pipeline:   dashboard.NewPipeline(logger),
		logger:     logger,
		metrics:    newPollerMetrics(reg),
		now:        time.Now,
	}
}

// Seed continues numbering after seq, typically the last sequence restored
// from storage.
func (p *Poller) Seed(seq uint64) {
	for {
		cur := p.seq.Load()
		if seq <= cur || p.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Run polls immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Infow("poller started", "url", p.url, "interval", p.interval)

	_, _ = p.Refresh(ctx)
	if p.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Infow("poller stopped")
			return nil
		case <-t.C:
			_, _ = p.Refresh(ctx)
		}
	}
}

// Refresh fetches one snapshot. Concurrent calls share a single fetch that
// is detached from any one caller, so a caller giving up only stops its own
// wait and leaves the fetch running for the others.
func (p *Poller) Refresh(ctx context.Context) (*model.Snapshot, error) {
	ch := p.refresh.DoChan("refresh", func() (any, error) {
		return p.Poll(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			p.logger.Debugw("refresh coalesced with an in-flight fetch")
		}
		snap, _ := res.Val.(*model.Snapshot)
		return snap, res.Err
	}
}

// Poll performs one fetch, derives a snapshot and applies it to the store.
// The sequence number is taken before the request is issued so that a slow
// response can not overwrite the result of a later one.
func (p *Poller) Poll(ctx context.Context) (*model.Snapshot, error) {
	seq := p.seq.Add(1)
	started := p.now()
	p.markAttempt(started)
	defer func() { p.metrics.duration.Observe(p.now().Sub(started).Seconds()) }()

	body, err := p.fetch(ctx)
	if errors.Is(err, context.Canceled) {
		p.metrics.fetches.WithLabelValues(OutcomeCanceled).Inc()
		p.logger.Debugw("metrics fetch canceled", "url", p.url)
		return nil, err
	}
	if err != nil {
		p.metrics.fetches.WithLabelValues(OutcomeFetchError).Inc()
		p.markFailure(false, err)
		p.logger.Warnw("unable to connect to metrics endpoint", "url", p.url, "error", err)
		return nil, fmt.Errorf("%w: %v", errs.ErrFetchFailed, err)
	}

	snap, err := p.pipeline.Run(bytes.NewReader(body))
	if err != nil {
		p.metrics.fetches.WithLabelValues(OutcomeParseError).Inc()
		p.markFailure(true, err)
		return nil, err
	}
	snap.Sequence = seq

	if err := p.store.Apply(ctx, snap); err != nil {
		if errors.Is(err, errs.ErrStaleSnapshot) {
			p.metrics.fetches.WithLabelValues(OutcomeStale).Inc()
			p.logger.Debugw("discarded stale snapshot", "sequence", seq)
			return nil, err
		}
		p.metrics.fetches.WithLabelValues(OutcomeStoreError).Inc()
		p.markFailure(true, err)
		p.logger.Errorw("failed to store snapshot", "sequence", seq, "error", err)
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	p.metrics.fetches.WithLabelValues(OutcomeSuccess).Inc()
	p.metrics.lastSuccess.Set(float64(snap.FetchedAt.Unix()))
	p.markSuccess(snap.FetchedAt)
	return snap, nil
}

func (p *Poller) fetch(ctx context.Context) ([]byte, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var body []byte
	err := utils.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Accept", "text/plain")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	return body, err
}

// Status returns the outcome of the latest fetches.
func (p *Poller) Status() model.FetchStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Poller) markAttempt(at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LastAttempt = at.UTC()
}

func (p *Poller) markSuccess(at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Connected = true
	p.status.LastSuccess = at.UTC()
	p.status.LastError = ""
}

func (p *Poller) markFailure(connected bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Connected = connected
	p.status.LastError = err.Error()
}
