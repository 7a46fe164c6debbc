package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nacansino/lean-scheduler/internal/engine"
	"github.com/nacansino/lean-scheduler/internal/server"
	"github.com/nacansino/lean-scheduler/internal/store"
	"github.com/nacansino/lean-scheduler/pkg/model"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		duration   time.Duration
		listen     string
		record     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a task table in real time",
		Long: "run starts a timer that advances the tick counter every tick period and a\n" +
			"main loop that dispatches due tasks, until --duration elapses or the process\n" +
			"is interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadDispatcher(cmd, configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("listen") {
				listen = l.cfg.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			var st *store.SQLiteStore
			if record || listen != "" {
				st, err = openStore(ctx, dbPath(l.cfg))
				if err != nil {
					return err
				}
				defer st.Close()
			}

			eng := engine.New(l.dispatcher, engine.Config{
				TickPeriod:   l.cfg.TickPeriod,
				PassInterval: l.cfg.EffectivePassInterval(),
			}, logger)

			srvErr := make(chan error, 1)
			if listen != "" {
				srv := server.New(logger,
					server.WithStatus(server.DispatcherStatus(l.dispatcher, eng, l.table)),
					server.WithStore(st),
				)
				go func() { srvErr <- srv.ListenAndServe(ctx, listen) }()
			} else {
				close(srvErr)
			}

			started := time.Now().UTC()
			err = eng.Start(ctx)
			finished := time.Now().UTC()
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("engine: %w", err)
			}
			stop()
			if err := <-srvErr; err != nil {
				logger.Error("status server", "error", err)
			}

			run := &model.Run{
				Mode:       model.RunModeRealtime,
				ConfigPath: configPath,
				TickPeriod: eng.TickPeriod(),
				Ticks:      uint64(l.dispatcher.TickCount()),
				Passes:     eng.Passes(),
				StartedAt:  started,
				FinishedAt: finished,
				Tasks:      taskStats(l.table),
			}
			printTaskStats(cmd.OutOrStdout(), run.Tasks)

			if record {
				if err := st.CreateRun(context.Background(), run); err != nil {
					return fmt.Errorf("record run: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nrecorded %s\n", run.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "leansched.yaml", "Task table file")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long (0 = until interrupted)")
	cmd.Flags().StringVar(&listen, "listen", "", "Serve the status API on this address")
	cmd.Flags().BoolVar(&record, "record", false, "Save the result to the run history")
	return cmd
}
