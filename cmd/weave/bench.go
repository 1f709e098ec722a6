package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vango-dev/weave"
	"github.com/vango-dev/weave/internal/demo"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/inspector"
)

// workload is one measured update of the demo list.
type workload struct {
	name string
	run  func(st *demo.State)
}

var workloads = []workload{
	{"append 1", func(st *demo.State) { st.Add(1) }},
	{"remove first", func(st *demo.State) { st.Remove(st.IDAt(0)) }},
	{"swap 1 and n-2", func(st *demo.State) { st.Swap(1, st.Len()-2) }},
	{"rotate", func(st *demo.State) { st.Rotate() }},
	{"reverse", func(st *demo.State) { st.Reverse() }},
	{"sort", func(st *demo.State) { st.Sort() }},
	{"relabel every 10th", func(st *demo.State) { st.Relabel(" !") }},
}

func benchCmd(c *cli) *cobra.Command {
	var items, rounds int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure list updates on the demo app",
		Long: `Mount the demo list on an in-memory document and time common list
updates, each followed by a flush. Host operations are counted per round.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("items") {
				items = c.cfg.Bench.Items
			}
			if !cmd.Flags().Changed("rounds") {
				rounds = c.cfg.Bench.Rounds
			}
			if items < 2 || rounds < 1 {
				return fmt.Errorf("bench needs at least 2 items and 1 round")
			}

			tbl := table.NewWriter()
			tbl.SetTitle(fmt.Sprintf("weave list, %s rows, %d rounds", humanize.Comma(int64(items)), rounds))
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "host ops"})

			createRounds := max(1, rounds/10)
			tach := tachymeter.New(&tachymeter.Config{Size: createRounds})
			var ops uint64
			for i := 0; i < createRounds; i++ {
				start := time.Now()
				app, rec, _, err := mountBench(c, items)
				if err != nil {
					return err
				}
				tach.AddTime(time.Since(start))
				ops = rec.Total()
				app.Unmount()
			}
			appendRow(tbl, fmt.Sprintf("create %s", humanize.Comma(int64(items))), tach.Calc(), ops)

			app, rec, st, err := mountBench(c, items)
			if err != nil {
				return err
			}
			for _, w := range workloads {
				tach := tachymeter.New(&tachymeter.Config{Size: rounds})
				before := rec.Total()
				for i := 0; i < rounds; i++ {
					start := time.Now()
					w.run(st)
					app.Flush()
					tach.AddTime(time.Since(start))
					rec.Drain()
				}
				appendRow(tbl, w.name, tach.Calc(), (rec.Total()-before)/uint64(rounds))
				c.logger.Debug("workload done", "name", w.name, "rows", st.Len())
			}

			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			stats := app.Stats()
			tbl.AppendFooter(table.Row{
				"heap " + humanize.Bytes(mem.HeapAlloc),
				"", "", "", "",
				"updates", humanize.Comma(int64(stats.Updates)),
			})
			tbl.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&items, "items", 0, "Number of rows (default from config)")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "Measured rounds per workload (default from config)")

	return cmd
}

// mountBench mounts a fresh demo app on a recording document. Updates run
// synchronously on app.Flush.
func mountBench(c *cli, items int) (*weave.App, *inspector.Recorder, *demo.State, error) {
	doc := dom.NewDocument()
	rec := inspector.NewRecorder(doc)
	def, st := demo.New(items)
	app, err := weave.CreateApp(def, weave.WithHost(rec), weave.WithLogger(c.logger.Logger))
	if err != nil {
		return nil, nil, nil, err
	}
	if err := app.Mount(doc.Body()); err != nil {
		return nil, nil, nil, err
	}
	rec.Drain()
	return app, rec, st, nil
}

func appendRow(tbl table.Writer, name string, calc *tachymeter.Metrics, ops uint64) {
	tbl.AppendRow(table.Row{
		name,
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
		humanize.Comma(int64(ops)),
	})
}
