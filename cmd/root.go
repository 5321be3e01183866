package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/david-sim0niants/audio-eq/internal/config"
	"github.com/david-sim0niants/audio-eq/internal/flags"
	"github.com/david-sim0niants/audio-eq/internal/log"
	"github.com/david-sim0niants/audio-eq/internal/presentation"
	"github.com/david-sim0niants/audio-eq/internal/repl"
	"github.com/david-sim0niants/audio-eq/internal/session"
)

// localConfigPath is tried before the user config and is where a default
// config is written when neither exists.
const localConfigPath = ".audioeq/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "audioeq",
	Short: "An interactive shell over a mirrored audio graph",
	Long: `audioeq mirrors the nodes, ports and links announced by an audio graph
manager, runs a low-pass filter that appears in the graph as its own node,
and lets you link ports and tune the filter from a line-based shell.

Announcements are read from event logs (JSONL or YAML). Links created in the
shell are announced back into the mirror and can be journaled.`,
	Version:           version,
	PersistentPreRunE: setupLogging,
	RunE:              runShell,
	SilenceUsage:      true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .audioeq/config.yaml, then ~/.config/audioeq/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging (also AUDIOEQ_DEBUG; log path from AUDIOEQ_LOG)")

	rootCmd.Flags().StringP("events", "e", "", "event log to replay before the shell starts")
	rootCmd.Flags().Bool("follow", false, "keep applying lines appended to the event log")
	rootCmd.Flags().StringP("journal", "j", "", "record announcements made by the shell to this log")
	rootCmd.Flags().Bool("no-save", false, "do not persist cutoff changes to the config file")

	_ = viper.BindPFlag("events.path", rootCmd.Flags().Lookup("events"))
	_ = viper.BindPFlag("events.follow", rootCmd.Flags().Lookup("follow"))
	_ = viper.BindPFlag("events.journal", rootCmd.Flags().Lookup("journal"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("events.debounce", defaults.Events.Debounce)
	viper.SetDefault("events.subscriber_buffer", defaults.Events.SubscriberBuffer)
	viper.SetDefault("session.link_id_base", defaults.Session.LinkIDBase)
	viper.SetDefault("session.lookup_ttl", defaults.Session.LookupTTL)
	viper.SetDefault("filter.enabled", defaults.Filter.Enabled)
	viper.SetDefault("filter.name", defaults.Filter.Name)
	viper.SetDefault("filter.cutoff_hz", defaults.Filter.CutoffHz)
	viper.SetDefault("filter.sample_rate", defaults.Filter.SampleRate)
	viper.SetDefault("filter.channels", defaults.Filter.Channels)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	viper.SetDefault("flags", defaults.Flags)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .audioeq/config.yaml (current directory)
		// 2. ~/.config/audioeq/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "audioeq"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Nothing found anywhere: continue with defaults. 'config:init'
			// writes a commented file.
			log.Debug(log.CatConfig, "no config file found, using defaults")
		} else {
			log.ErrorErr(log.CatConfig, "reading config", err, "path", viper.ConfigFileUsed())
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// setupLogging enables the debug log when --debug or AUDIOEQ_DEBUG is set.
func setupLogging(cmd *cobra.Command, _ []string) error {
	if os.Getenv("AUDIOEQ_DEBUG") == "" && !debugFlag {
		return nil
	}
	logPath := os.Getenv("AUDIOEQ_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}

	cleanup, err := log.Init(logPath)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	cobra.OnFinalize(cleanup)

	log.Info(log.CatCLI, "audioeq starting", "command", cmd.Name(), "version", version, "logPath", logPath)
	return nil
}

// configPath is where cutoff changes are saved.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return localConfigPath
}

func runShell(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	go rt.resolver.Watch(ctx)

	features := flags.New(cfg.Flags)
	if noSave, _ := cmd.Flags().GetBool("no-save"); noSave {
		features = features.With(flags.FlagSaveCutoff, false)
	}

	if cfg.Events.Path != "" {
		if cfg.Events.Follow {
			go followEvents(ctx, rt, cfg.Events)
		} else {
			n, err := rt.replay(ctx, cfg.Events.Path)
			if err != nil {
				return fmt.Errorf("replaying %s: %w", cfg.Events.Path, err)
			}
			log.Info(log.CatEventLog, "replayed event log", "path", cfg.Events.Path, "events", n)
			if features.Enabled(flags.FlagVerifyReplay) {
				verifyReplay(cmd, rt)
			}
		}
	}

	shellCfg := repl.Config{
		Registry: rt.registry,
		Loopback: rt.loopback,
		Resolver: rt.resolver,
		Filter:   rt.filter,
	}
	if features.Enabled(flags.FlagSaveCutoff) {
		path := configPath()
		shellCfg.OnCutoff = func(hz float32) error {
			return config.SaveCutoff(path, hz)
		}
	}

	if in := cmd.InOrStdin(); repl.IsTerminal(in) {
		return repl.RunTerminal(ctx, shellCfg, in, cmd.OutOrStdout())
	}
	return repl.New(shellCfg, cmd.OutOrStdout(), cmd.ErrOrStderr()).Run(ctx, cmd.InOrStdin())
}

// verifyReplay reports invariant violations without stopping the shell.
func verifyReplay(cmd *cobra.Command, rt *runtime) {
	if err := rt.registry.Check(); err != nil {
		log.ErrorErr(log.CatGraph, "graph inconsistent after replay", err)
		presentation.NewFormatter(cmd.ErrOrStderr()).Error("graph is inconsistent after replay: %v", err)
	}
}

func followEvents(ctx context.Context, rt *runtime, events config.EventsConfig) {
	if err := session.Follow(ctx, events.Path, rt.listener, events.Debounce); err != nil {
		log.ErrorErr(log.CatEventLog, "following event log stopped", err, "path", events.Path)
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
