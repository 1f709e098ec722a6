package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/weave"
	"github.com/vango-dev/weave/internal/demo"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/inspector"
	"github.com/vango-dev/weave/pkg/telemetry"
)

func serveCmd(c *cli) *cobra.Command {
	var (
		addr    string
		items   int
		history int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo app behind the inspector",
		Long: `Mount the demo list app on an in-memory document and serve it.

The inspector page mirrors the document and forwards clicks back to the
app over a websocket. Every flush that changed the document is streamed
as a frame of host operations.

Routes:
  /          Live view
  /snapshot  Current HTML
  /ws        Operation stream (?after=N replays retained frames)
  /metrics   Prometheus metrics, unless disabled`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			logger := c.logger.Logger

			var (
				metrics  *telemetry.Metrics
				gatherer prometheus.Gatherer
			)
			if cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				metrics = telemetry.NewMetrics(
					telemetry.WithNamespace(cfg.Metrics.Namespace),
					telemetry.WithRegistry(reg),
				)
				gatherer = reg
			}

			doc := dom.NewDocument()
			rec := inspector.NewRecorder(doc)
			def, _ := demo.New(items)
			app, err := weave.CreateApp(def,
				weave.WithHost(rec),
				weave.WithLogger(logger),
				weave.WithMetrics(metrics),
				weave.WithTracer(telemetry.NewTracer()),
			)
			if err != nil {
				return err
			}
			if err := app.Mount(doc.Body()); err != nil {
				return err
			}

			opts := []inspector.Option{
				inspector.WithLogger(logger),
				inspector.WithHistorySize(history),
			}
			if gatherer != nil {
				opts = append(opts, inspector.WithGatherer(gatherer))
			}
			srv := inspector.New(app, rec, opts...)

			printBanner()
			success("Mounted demo with %s rows (%s host operations)",
				humanize.Comma(int64(items)), humanize.Comma(int64(rec.Total())))
			info("Inspector: http://localhost%s", cfg.Addr)
			if gatherer != nil {
				info("Metrics:   http://localhost%s/metrics", cfg.Addr)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			loopErr := make(chan error, 1)
			go func() { loopErr <- app.Run(ctx) }()

			serveErr := srv.ListenAndServe(ctx, cfg.Addr)
			stop()
			if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("loop stopped", "error", err)
			}
			// The loop has returned; this goroutine owns the app again.
			app.Unmount()
			seq, _ := srv.Snapshot()
			logger.Info("inspector stopped", "frames", seq)
			return serveErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().IntVar(&items, "items", 100, "Number of rows in the demo list")
	cmd.Flags().IntVar(&history, "history", 64, "Frames retained for reconnecting clients")

	return cmd
}
