package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/david-sim0niants/audio-eq/internal/presentation"
)

var (
	replayJSON  bool
	replayCheck bool
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Replay an event log and print the resulting graph",
	Long: `Replay an event log into an empty mirror and print what it resolved to.

The format is chosen from the extension: .jsonl, .ndjson or .json for one
event per line, .yaml or .yml for a stream of YAML documents.

Each event has an op ("add" or "remove"), an id, and for additions a type
("PipeWire:Interface:Node", "...:Port" or "...:Link") and a property bag.

Examples:
  # Print nodes, links and counters
  audioeq replay session.jsonl

  # Dump the whole graph as JSON
  audioeq replay session.yaml --json | jq '.links'

  # Fail if the mirror ends up inconsistent
  audioeq replay session.jsonl --check`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "print the graph as JSON")
	replayCmd.Flags().BoolVar(&replayCheck, "check", false, "verify the mirror's invariants after replay")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	replayCfg := cfg
	// Replay shows only what the log describes.
	replayCfg.Filter.Enabled = false
	replayCfg.Events.Journal = ""
	if err := replayCfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rt, err := newRuntime(replayCfg)
	if err != nil {
		return err
	}
	defer rt.close()

	n, err := rt.replay(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("replaying %s: %w", args[0], err)
	}

	if replayCheck {
		if err := rt.registry.Check(); err != nil {
			return fmt.Errorf("graph is inconsistent after %d events: %w", n, err)
		}
	}

	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	if replayJSON {
		return formatter.FormatGraph(rt.registry)
	}
	formatter.Nodes(rt.registry.ListNodes())
	formatter.Links(rt.registry.ListLinks())
	formatter.Stats(rt.registry.Stats())
	formatter.Plain("Events: %d", n)
	return nil
}
