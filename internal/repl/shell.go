// Package repl implements the interactive shell. It reads one command per
// line, applies it to the graph mirror and the low-pass filter, and prints
// results and errors to separate writers. Terminals get an inline bubbletea
// front end with history; other input is read line by line.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/david-sim0niants/audio-eq/internal/filter/lowpass"
	"github.com/david-sim0niants/audio-eq/internal/graph"
	"github.com/david-sim0niants/audio-eq/internal/log"
	"github.com/david-sim0niants/audio-eq/internal/lookup"
	"github.com/david-sim0niants/audio-eq/internal/presentation"
	"github.com/david-sim0niants/audio-eq/internal/session"
)

// DefaultPrompt is printed before every line is read.
const DefaultPrompt = "(aeq) "

// Config wires the shell to the objects its commands act on.
type Config struct {
	Registry *graph.Registry
	Loopback *session.Loopback
	Resolver *lookup.Resolver

	// Filter is the low-pass filter driven by freq. Nil disables freq.
	Filter *lowpass.Filter

	// OnCutoff, when set, is called after freq changes the cutoff.
	// Its error is reported but does not undo the change.
	OnCutoff func(hz float32) error

	Prompt string
}

type command struct {
	usage string
	help  string
	run   func(s *Shell, ctx context.Context, args []string)
}

// Shell reads commands and writes results.
type Shell struct {
	cfg      Config
	out      io.Writer
	stdout   *presentation.Formatter
	stderr   *presentation.Formatter
	commands map[string]command
}

// New creates a shell printing results to out and errors to errOut.
func New(cfg Config, out, errOut io.Writer) *Shell {
	return newShell(cfg, out, errOut, nil)
}

// newShell is New with colors decided by r instead of by the writers.
func newShell(cfg Config, out, errOut io.Writer, r *lipgloss.Renderer) *Shell {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.Resolver == nil && cfg.Registry != nil {
		cfg.Resolver = lookup.NewDefaultResolver(cfg.Registry)
	}
	s := &Shell{
		cfg:      cfg,
		out:      out,
		commands: builtins(),
	}
	if r != nil {
		s.stdout = presentation.NewFormatterWithRenderer(out, r)
		s.stderr = presentation.NewFormatterWithRenderer(errOut, r)
	} else {
		s.stdout = presentation.NewFormatter(out)
		s.stderr = presentation.NewFormatter(errOut)
	}
	return s
}

func builtins() map[string]command {
	return map[string]command{
		"list":   {usage: "list [nodes|ports|links]", help: "List nodes with their ports, or all ports, or all links", run: (*Shell).doList},
		"link":   {usage: "link PORT PORT", help: "Link an output port to an input port, given by id or node:port", run: (*Shell).doLink},
		"unlink": {usage: "unlink ID", help: "Remove a link created by this shell", run: (*Shell).doUnlink},
		"freq":   {usage: "freq HZ", help: "Set the low-pass cutoff frequency (16 to 20000)", run: (*Shell).doFreq},
		"show":   {usage: "show ID|NODE|NODE:PORT", help: "Show one node, port or link", run: (*Shell).doShow},
		"status": {usage: "status", help: "Show graph counters and session state", run: (*Shell).doStatus},
		"dump":   {usage: "dump", help: "Print the whole graph as JSON", run: (*Shell).doDump},
		"help":   {usage: "help", help: "Show this help", run: (*Shell).doHelp},
	}
}

// Run reads lines from in until "exit", end of input, or ctx is cancelled.
// Used for piped or redirected input; see RunTerminal for terminals.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		_, _ = io.WriteString(s.out, s.cfg.Prompt)
		if !scanner.Scan() {
			break
		}
		if s.Execute(ctx, scanner.Text()) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}
	return nil
}

// Execute runs one command line and reports whether the shell should exit.
// Blank lines are ignored.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := fields[0], fields[1:]
	if name == "exit" {
		return true
	}

	cmd, ok := s.commands[name]
	if !ok {
		log.Debug(log.CatCLI, "unknown command", "command", name)
		s.stderr.Error("no such command - '%s'.", name)
		return false
	}
	log.Debug(log.CatCLI, "command", "command", name, "args", args)
	cmd.run(s, ctx, args)
	return false
}

func (s *Shell) usage(name string) {
	s.stderr.Error("usage: %s", s.commands[name].usage)
}

func (s *Shell) doList(_ context.Context, args []string) {
	what := "nodes"
	if len(args) > 0 {
		what = args[0]
	}
	switch what {
	case "nodes":
		s.stdout.Nodes(s.cfg.Registry.ListNodes())
	case "ports":
		for _, p := range s.cfg.Registry.ListPorts() {
			s.stdout.Port(p)
		}
	case "links":
		s.stdout.Links(s.cfg.Registry.ListLinks())
	default:
		s.usage("list")
	}
}

func (s *Shell) doLink(ctx context.Context, args []string) {
	if len(args) != 2 {
		s.usage("link")
		return
	}

	ports := make([]graph.Port, 2)
	for i, ref := range args {
		p, err := s.cfg.Resolver.Port(ctx, ref)
		switch {
		case errors.Is(err, lookup.ErrAmbiguous):
			s.stderr.Error("port reference '%s' is ambiguous.", ref)
			return
		case err != nil:
			s.stderr.Error("no such port with id '%s'.", ref)
			return
		}
		ports[i] = p
	}

	id, err := s.cfg.Loopback.Connect(ctx, s.cfg.Registry, ports[0].ID, ports[1].ID)
	switch {
	case errors.Is(err, session.ErrDirectionMismatch):
		s.stderr.Error("both ports have the same direction.")
	case err != nil:
		log.ErrorErr(log.CatCLI, "link failed", err, "a", ports[0].ID, "b", ports[1].ID)
		s.stderr.Plain("Failed to link ports.")
	default:
		s.stdout.Success("Link ID: %d", id)
	}
}

func (s *Shell) doUnlink(ctx context.Context, args []string) {
	if len(args) != 1 {
		s.usage("unlink")
		return
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		s.stderr.Error("invalid link id '%s'.", args[0])
		return
	}

	err = s.cfg.Loopback.UnlinkPorts(ctx, graph.ID(id))
	switch {
	case errors.Is(err, session.ErrUnknownLink):
		s.stderr.Error("link %d was not created by this shell.", id)
	case err != nil:
		s.stderr.Error("%v", err)
	}
}

func (s *Shell) doFreq(_ context.Context, args []string) {
	if s.cfg.Filter == nil {
		s.stderr.Error("no low pass filter is running.")
		return
	}
	if len(args) != 1 {
		s.usage("freq")
		return
	}
	hz64, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		s.stderr.Error("invalid frequency '%s'.", args[0])
		return
	}
	hz := float32(hz64)
	switch {
	case hz < lowpass.MinCutoff:
		s.stderr.Error("too low frequency for low pass filter.")
		return
	case hz > lowpass.MaxCutoff:
		s.stderr.Error("too high frequency for low pass filter.")
		return
	}

	if err := s.cfg.Filter.SetCutoff(hz); err != nil {
		s.stderr.Error("%v", err)
		return
	}
	log.Info(log.CatFilter, "cutoff changed", "hz", hz)

	if s.cfg.OnCutoff != nil {
		if err := s.cfg.OnCutoff(hz); err != nil {
			log.ErrorErr(log.CatConfig, "persist cutoff", err, "hz", hz)
			s.stderr.Error("cutoff changed but not saved: %v", err)
		}
	}
}

func (s *Shell) doShow(ctx context.Context, args []string) {
	if len(args) != 1 {
		s.usage("show")
		return
	}
	ref := args[0]

	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil && !strings.Contains(ref, ":") {
		n, ok := s.cfg.Registry.FindNodeByName(ref)
		if !ok {
			s.stderr.Error("no node named '%s'.", ref)
			return
		}
		s.stdout.Node(n)
		return
	}
	if err != nil {
		p, err := s.cfg.Resolver.Port(ctx, ref)
		if err != nil {
			s.stderr.Error("%v", err)
			return
		}
		s.stdout.Port(p)
		return
	}

	r := s.cfg.Registry
	if n, ok := r.FindNode(graph.ID(id)); ok {
		s.stdout.Node(n)
	} else if p, ok := r.FindPort(graph.ID(id)); ok {
		s.stdout.Port(p)
	} else if l, ok := r.FindLink(graph.ID(id)); ok {
		s.stdout.Link(l)
	} else {
		s.stderr.Error("no object with id '%d'.", id)
	}
}

func (s *Shell) doStatus(_ context.Context, _ []string) {
	s.stdout.Stats(s.cfg.Registry.Stats())
	if s.cfg.Loopback != nil {
		s.stdout.Plain("Session: %s", s.cfg.Loopback.ID())
		s.stdout.Plain("Session links: %d", len(s.cfg.Loopback.Links()))
	}
	if s.cfg.Filter != nil {
		s.stdout.Plain("Cutoff: %g Hz", s.cfg.Filter.Cutoff())
	}
}

func (s *Shell) doDump(_ context.Context, _ []string) {
	if err := s.stdout.FormatGraph(s.cfg.Registry); err != nil {
		s.stderr.Error("%v", err)
	}
}

func (s *Shell) doHelp(_ context.Context, _ []string) {
	names := make([]string, 0, len(s.commands)+1)
	for name := range s.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	rows := make([][2]string, 0, len(names)+1)
	width := 0
	for _, name := range names {
		c := s.commands[name]
		rows = append(rows, [2]string{c.usage, c.help})
		width = max(width, len(c.usage))
	}
	rows = append(rows, [2]string{"exit", "Leave the shell"})
	for _, row := range rows {
		s.stdout.Plain("  %-*s  %s", width, row[0], row[1])
	}
}
