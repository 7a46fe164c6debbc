package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nacansino/lean-scheduler/pkg/model"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		mode  string
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), dbPath(nil))
			if err != nil {
				return err
			}
			defer st.Close()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				run, err := st.GetRun(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("get run: %w", err)
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				fmt.Fprintf(out, "%s  %s  %s\n", run.ID, run.Mode, run.ConfigPath)
				fmt.Fprintf(out, "started %s, took %s, %s ticks, %s passes\n\n",
					humanize.Time(run.StartedAt), run.Duration().Round(time.Millisecond),
					humanize.Comma(int64(run.Ticks)), humanize.Comma(int64(run.Passes)))
				printTaskStats(out, run.Tasks)
				return nil
			}

			opts := model.ListOptions{Limit: limit, Mode: model.RunMode(mode)}
			if mode != "" && !opts.Mode.Valid() {
				return fmt.Errorf("unknown mode %q", mode)
			}
			runs, err := st.ListRuns(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-40s  %-8s  %-10s  %-12s  %s\n", "ID", "MODE", "TICKS", "INVOCATIONS", "STARTED")
			fmt.Fprintf(out, "%-40s  %-8s  %-10s  %-12s  %s\n", "--", "----", "-----", "-----------", "-------")
			for _, r := range runs {
				fmt.Fprintf(out, "%-40s  %-8s  %-10s  %-12s  %s\n",
					r.ID, r.Mode, humanize.Comma(int64(r.Ticks)),
					humanize.Comma(int64(r.TotalInvocations())), humanize.Time(r.StartedAt))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	cmd.Flags().StringVar(&mode, "mode", "", "Only list runs of this mode (run, simulate)")
	return cmd
}
