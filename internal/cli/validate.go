package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a task table without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadDispatcher(cmd, configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d tasks, tick period %s\n", configPath, l.dispatcher.Len(), l.dispatcher.TickPeriod())
			for _, t := range l.cfg.Tasks {
				fmt.Fprintf(out, "  %-24s  %-10s  %s\n", t.Name, t.Kind, intervalLabel(t.Interval))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "leansched.yaml", "Task table file")
	return cmd
}
