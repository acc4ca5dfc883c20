// Command dashctl builds one dashboard snapshot and prints it.
//
// By default it scrapes the LINSTOR controller (-u) or reads a saved
// exposition file (-f) and runs the pipeline locally. With -s it reads the
// current view from a running dashboard server instead, optionally asking
// it to refresh first.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/and161185/linstor-dashboard/internal/client"
	"github.com/and161185/linstor-dashboard/internal/config"
	"github.com/and161185/linstor-dashboard/internal/dashboard"
	"github.com/and161185/linstor-dashboard/internal/linstor"
	"github.com/and161185/linstor-dashboard/internal/units"
	"github.com/and161185/linstor-dashboard/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewClientConfig()
	defer func() { _ = cfg.Logger.Sync() }()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		cfg.Logger.Errorw("dashctl failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, out io.Writer) error {
	c := client.New(cfg.ClientTimeoutDuration(), cfg.Key, cfg.Logger)

	view, err := load(ctx, cfg, c)
	if err != nil {
		return err
	}

	switch cfg.Output {
	case "", "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "text":
		return writeText(out, view)
	default:
		return fmt.Errorf("unknown output format %q", cfg.Output)
	}
}

func load(ctx context.Context, cfg *config.ClientConfig, c *client.Client) (*model.DashboardView, error) {
	if cfg.Server != "" {
		if cfg.Refresh {
			return c.Refresh(ctx, cfg.Server)
		}
		return c.Dashboard(ctx, cfg.Server)
	}

	var payload []byte
	if cfg.File != "" {
		b, err := os.ReadFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("read exposition file: %w", err)
		}
		payload = b
	} else {
		base, err := linstor.ResolveEndpoint(cfg.Endpoint)
		if err != nil {
			return nil, err
		}
		if payload, err = c.FetchExposition(ctx, linstor.MetricsURL(base, cfg.MetricsPath)); err != nil {
			return nil, err
		}
	}

	snap, err := dashboard.NewPipeline(cfg.Logger).Run(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return &model.DashboardView{
		State:    model.DataAvailable,
		Status:   model.FetchStatus{Connected: true, LastSuccess: snap.FetchedAt, LastAttempt: snap.FetchedAt},
		Snapshot: *snap,
	}, nil
}

func writeText(out io.Writer, view *model.DashboardView) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	snap := view.Snapshot

	fmt.Fprintf(tw, "state\t%s\n", view.State)
	if view.State == model.AwaitingData {
		if view.Status.LastError != "" {
			fmt.Fprintf(tw, "last error\t%s\n", view.Status.LastError)
		}
		return tw.Flush()
	}

	fmt.Fprintf(tw, "snapshot\t%s (#%d)\n", snap.ID, snap.Sequence)
	fmt.Fprintf(tw, "fetched at\t%s\n", snap.FetchedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(tw, "nodes\t%d\n", snap.Summary.Node)
	fmt.Fprintf(tw, "resources\t%d\n", snap.Summary.Resource)
	fmt.Fprintf(tw, "volumes\t%d\n", snap.Summary.Volume)
	fmt.Fprintf(tw, "error reports\t%d\n", snap.Summary.ErrorReport)
	if c := snap.Capacity; c != nil {
		fmt.Fprintf(tw, "capacity\t%g %s free of %g %s (%.1f%% used)\n",
			units.ConvertRounded(float64(c.FreeBytes), units.B, units.GiB), units.GiB,
			units.ConvertRounded(float64(c.TotalBytes), units.B, units.GiB), units.GiB,
			c.UsedPct)
	}

	for _, section := range []struct {
		title string
		chart model.ChartData
	}{
		{"node states", snap.Nodes},
		{"resource states", snap.Resources},
		{"volume states", snap.Volumes},
	} {
		fmt.Fprintf(tw, "\n%s\t\n", section.title)
		for _, d := range section.chart.Data {
			fmt.Fprintf(tw, "  %s\t%d\n", d.X, d.Y)
		}
	}
	return tw.Flush()
}
