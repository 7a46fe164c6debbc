package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nacansino/lean-scheduler/internal/engine"
	"github.com/nacansino/lean-scheduler/pkg/model"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	var (
		configPath string
		ticks      int
		record     bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a task table for a fixed number of ticks without a clock",
		Long: "simulate runs one dispatch pass per tick, starting at tick 0, and prints\n" +
			"how often each task fired. No wall-clock time is involved.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks < 0 {
				return fmt.Errorf("--ticks must not be negative")
			}
			l, err := loadDispatcher(cmd, configPath)
			if err != nil {
				return err
			}

			started := time.Now().UTC()
			res := engine.Simulate(l.dispatcher, ticks)
			run := &model.Run{
				Mode:       model.RunModeSimulate,
				ConfigPath: configPath,
				TickPeriod: l.dispatcher.TickPeriod(),
				Ticks:      uint64(res.Ticks),
				Passes:     uint64(res.Passes),
				StartedAt:  started,
				FinishedAt: time.Now().UTC(),
				Tasks:      taskStats(l.table),
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s ticks, %s passes\n\n", humanize.Comma(int64(res.Ticks)), humanize.Comma(int64(res.Passes)))
			printTaskStats(out, run.Tasks)

			if !record {
				return nil
			}
			st, err := openStore(cmd.Context(), dbPath(l.cfg))
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.CreateRun(cmd.Context(), run); err != nil {
				return fmt.Errorf("record run: %w", err)
			}
			fmt.Fprintf(out, "\nrecorded %s\n", run.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "leansched.yaml", "Task table file")
	cmd.Flags().IntVarP(&ticks, "ticks", "n", 100, "Number of ticks to simulate")
	cmd.Flags().BoolVar(&record, "record", false, "Save the result to the run history")
	return cmd
}
