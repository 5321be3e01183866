package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/david-sim0niants/audio-eq/internal/graph"
	"github.com/david-sim0niants/audio-eq/internal/log"
	"github.com/david-sim0niants/audio-eq/internal/presentation"
	"github.com/david-sim0niants/audio-eq/internal/pubsub"
	"github.com/david-sim0niants/audio-eq/internal/session"
)

var monitorLogs bool

var monitorCmd = &cobra.Command{
	Use:   "monitor FILE",
	Short: "Follow a JSONL event log and print every change to the graph",
	Long: `Apply a JSONL event log, then keep applying lines appended to it and print
each change to the mirror as it happens. Stops on Ctrl-C.

With --logs, debug log entries are interleaved with the changes; this implies
--debug.

Examples:
  audioeq monitor session.jsonl
  audioeq monitor session.jsonl --logs`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if monitorLogs {
			debugFlag = true
		}
		return setupLogging(cmd, args)
	},
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorLogs, "logs", false, "also print debug log entries")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	monitorCfg := cfg
	monitorCfg.Filter.Enabled = false
	monitorCfg.Events.Journal = ""
	if err := monitorCfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(monitorCfg)
	if err != nil {
		return err
	}
	defer rt.close()

	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	changes := rt.registry.Subscribe(ctx)
	var logs <-chan log.LogEvent
	if monitorLogs {
		logs = log.NewListener(ctx)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Follow(ctx, args[0], rt.listener, monitorCfg.Events.Debounce)
	}()

	return printChanges(ctx, formatter, changes, logs, done)
}

// printChanges writes one line per change or log entry until follow returns.
func printChanges(ctx context.Context, f *presentation.Formatter, changes <-chan pubsub.Event[graph.Change], logs <-chan log.LogEvent, done <-chan error) error {
	for {
		select {
		case err := <-done:
			return err
		case ev, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			f.Plain("%s %s %d", ev.Type, ev.Payload.Kind, ev.Payload.ID)
		case ev, ok := <-logs:
			if !ok {
				logs = nil
				continue
			}
			f.Plain("%s", strings.TrimRight(ev.Payload, "\n"))
		case <-ctx.Done():
			return <-done
		}
	}
}
