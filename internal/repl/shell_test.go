package repl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/david-sim0niants/audio-eq/internal/filter/lowpass"
	"github.com/david-sim0niants/audio-eq/internal/graph"
	"github.com/david-sim0niants/audio-eq/internal/presentation"
	"github.com/david-sim0niants/audio-eq/internal/session"
	"github.com/david-sim0niants/audio-eq/internal/testutil"
)

type fixture struct {
	registry *graph.Registry
	loopback *session.Loopback
	filter   *lowpass.Filter
	cfg      Config
	shell    *Shell
	out      *bytes.Buffer
	errOut   *bytes.Buffer
	saved    []float32
}

// newFixture mirrors a speaker sink (ports 10, 11) and a player (port 20).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := graph.New()
	t.Cleanup(r.Close)

	r.NotifyNodeAdded(1, "speakers", "Built-in Audio")
	r.NotifyPortAdded(10, "playback_FL", graph.Input, 1)
	r.NotifyPortAdded(11, "playback_FR", graph.Input, 1)
	r.NotifyNodeAdded(2, "player", "Music Player")
	r.NotifyPortAdded(20, "output_FL", graph.Output, 2)

	f, err := lowpass.New(1000, 48000, 2)
	require.NoError(t, err)

	fx := &fixture{
		registry: r,
		loopback: session.NewLoopback(session.NewDispatcher(r), session.WithInUse(r.Has)),
		filter:   f,
		out:      &bytes.Buffer{},
		errOut:   &bytes.Buffer{},
	}
	fx.cfg = Config{
		Registry: r,
		Loopback: fx.loopback,
		Filter:   f,
		OnCutoff: func(hz float32) error {
			fx.saved = append(fx.saved, hz)
			return nil
		},
	}
	fx.shell = New(fx.cfg, fx.out, fx.errOut)
	return fx
}

func (fx *fixture) exec(t *testing.T, line string) {
	t.Helper()
	fx.out.Reset()
	fx.errOut.Reset()
	require.False(t, fx.shell.Execute(context.Background(), line))
}

func TestShell_UnknownCommand(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "frobnicate 1 2")

	require.Equal(t, "Error: no such command - 'frobnicate'.\n", fx.errOut.String())
	require.Empty(t, fx.out.String())
}

func TestShell_BlankLineIsIgnored(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "   \t ")

	require.Empty(t, fx.out.String())
	require.Empty(t, fx.errOut.String())
}

func TestShell_ExitStopsExecution(t *testing.T) {
	fx := newFixture(t)
	require.True(t, fx.shell.Execute(context.Background(), "  exit  "))
}

func TestShell_List(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "list")

	require.Equal(t,
		"1: speakers: Built-in Audio\nInput ports:\n\t10: playback_FL\n\t11: playback_FR\nOutput ports:\n"+
			"2: player: Music Player\nInput ports:\nOutput ports:\n\t20: output_FL\n",
		fx.out.String())
}

func TestShell_ListLinksAndPorts(t *testing.T) {
	fx := newFixture(t)
	fx.exec(t, "link 20 10")

	fx.exec(t, "list links")
	require.Contains(t, fx.out.String(), "Link 65536: 20 -> 10\n")

	fx.exec(t, "list ports")
	require.Contains(t, fx.out.String(), "10: playback_FL (in)")
	require.Contains(t, fx.out.String(), "20: output_FL (out)")

	fx.exec(t, "list everything")
	require.Equal(t, "Error: usage: list [nodes|ports|links]\n", fx.errOut.String())
}

func TestShell_LinkByID(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "link 10 20")

	require.Equal(t, "Link ID: 65536\n", fx.out.String())
	require.Empty(t, fx.errOut.String())
	l, ok := fx.registry.FindLink(65536)
	require.True(t, ok)
	require.Equal(t, graph.ID(20), l.Output.ID, "the output port is always the link's output")
	require.Equal(t, graph.ID(10), l.Input.ID)

	p, _ := fx.registry.FindPort(20)
	_, linked := p.LinkedTo(10)
	require.True(t, linked)
}

func TestShell_LinkByName(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "link player:output_FL speakers:playback_FR")

	require.Equal(t, "Link ID: 65536\n", fx.out.String())
	l, ok := fx.registry.FindLink(65536)
	require.True(t, ok)
	require.Equal(t, graph.ID(11), l.Input.ID)
}

func TestShell_LinkErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"link 10", "Error: usage: link PORT PORT\n"},
		{"link 10 99", "Error: no such port with id '99'.\n"},
		{"link nobody:nothing 10", "Error: no such port with id 'nobody:nothing'.\n"},
		{"link 10 11", "Error: both ports have the same direction.\n"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			fx := newFixture(t)
			fx.exec(t, tt.line)
			require.Equal(t, tt.want, fx.errOut.String())
			require.Empty(t, fx.out.String())
			require.Zero(t, fx.registry.Stats().Links)
		})
	}
}

func TestShell_LinkAmbiguousName(t *testing.T) {
	fx := newFixture(t)
	fx.registry.NotifyNodeAdded(3, "player", "")
	fx.registry.NotifyPortAdded(30, "output_FL", graph.Output, 3)

	fx.exec(t, "link player:output_FL 10")

	require.Equal(t, "Error: port reference 'player:output_FL' is ambiguous.\n", fx.errOut.String())
}

func TestShell_LinkSkipsIDsInUse(t *testing.T) {
	fx := newFixture(t)
	fx.registry.NotifyNodeAdded(65536, "taken", "")

	fx.exec(t, "link 20 10")

	require.Equal(t, "Link ID: 65537\n", fx.out.String())
}

func TestShell_Unlink(t *testing.T) {
	fx := newFixture(t)
	fx.exec(t, "link 20 10")

	fx.exec(t, "unlink 65536")

	require.Empty(t, fx.errOut.String())
	require.Empty(t, fx.out.String())
	_, ok := fx.registry.FindLink(65536)
	require.False(t, ok)
	p, _ := fx.registry.FindPort(10)
	require.Zero(t, p.NumLinkedPorts())
}

func TestShell_UnlinkErrors(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "unlink")
	require.Equal(t, "Error: usage: unlink ID\n", fx.errOut.String())

	fx.exec(t, "unlink abc")
	require.Equal(t, "Error: invalid link id 'abc'.\n", fx.errOut.String())

	fx.exec(t, "unlink 7")
	require.Equal(t, "Error: link 7 was not created by this shell.\n", fx.errOut.String())
}

func TestShell_Freq(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "freq 440.5")

	require.Empty(t, fx.errOut.String())
	require.Equal(t, float32(440.5), fx.filter.Cutoff())
	require.Equal(t, []float32{440.5}, fx.saved)
}

func TestShell_FreqBounds(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"freq 15.9", "Error: too low frequency for low pass filter.\n"},
		{"freq 20000.5", "Error: too high frequency for low pass filter.\n"},
		{"freq loud", "Error: invalid frequency 'loud'.\n"},
		{"freq", "Error: usage: freq HZ\n"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			fx := newFixture(t)
			fx.exec(t, tt.line)
			require.Equal(t, tt.want, fx.errOut.String())
			require.Equal(t, float32(1000), fx.filter.Cutoff())
			require.Empty(t, fx.saved)
		})
	}
}

func TestShell_FreqAcceptsBoundaries(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "freq 16")
	require.Equal(t, float32(16), fx.filter.Cutoff())
	fx.exec(t, "freq 20000")
	require.Equal(t, float32(20000), fx.filter.Cutoff())
	require.Empty(t, fx.errOut.String())
}

func TestShell_FreqSaveFailureKeepsCutoff(t *testing.T) {
	fx := newFixture(t)
	fx.shell.cfg.OnCutoff = func(float32) error { return errors.New("read-only") }

	fx.exec(t, "freq 300")

	require.Equal(t, float32(300), fx.filter.Cutoff())
	require.Equal(t, "Error: cutoff changed but not saved: read-only\n", fx.errOut.String())
}

func TestShell_FreqWithoutFilter(t *testing.T) {
	fx := newFixture(t)
	fx.shell.cfg.Filter = nil

	fx.exec(t, "freq 300")

	require.Equal(t, "Error: no low pass filter is running.\n", fx.errOut.String())
}

func TestShell_Show(t *testing.T) {
	fx := newFixture(t)
	fx.exec(t, "link 20 10")

	fx.exec(t, "show 1")
	require.True(t, strings.HasPrefix(fx.out.String(), "1: speakers: Built-in Audio\n"))

	fx.exec(t, "show 20")
	require.Contains(t, fx.out.String(), "20: output_FL (out)")
	require.Contains(t, fx.out.String(), "Linked to: 10\n")

	fx.exec(t, "show 65536")
	require.Equal(t, "Link 65536: 20 -> 10\n", fx.out.String())

	fx.exec(t, "show speakers:playback_FR")
	require.Contains(t, fx.out.String(), "11: playback_FR (in)")

	fx.exec(t, "show 404")
	require.Equal(t, "Error: no object with id '404'.\n", fx.errOut.String())
}

func TestShell_ShowNodeByName(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "show speakers")
	require.True(t, strings.HasPrefix(fx.out.String(), "1: speakers: Built-in Audio\n"))
	require.Empty(t, fx.errOut.String())

	fx.exec(t, "show nobody")
	require.Empty(t, fx.out.String())
	require.Equal(t, "Error: no node named 'nobody'.\n", fx.errOut.String())
}

func TestShell_Status(t *testing.T) {
	fx := newFixture(t)
	fx.exec(t, "link 20 10")

	fx.exec(t, "status")

	out := fx.out.String()
	require.Contains(t, out, "Nodes: 2\n")
	require.Contains(t, out, "Ports: 3\n")
	require.Contains(t, out, "Links: 1\n")
	require.Contains(t, out, "Session: "+fx.loopback.ID().String())
	require.Contains(t, out, "Session links: 1\n")
	require.Contains(t, out, "Cutoff: 1000 Hz\n")
}

func TestShell_Dump(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "dump")

	var g presentation.GraphDTO
	require.NoError(t, json.Unmarshal(fx.out.Bytes(), &g))
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Ports, 3)
}

func TestShell_Help(t *testing.T) {
	fx := newFixture(t)

	fx.exec(t, "help")

	for _, name := range []string{"list", "link", "unlink", "freq", "show", "status", "dump", "help", "exit"} {
		require.Contains(t, fx.out.String(), "  "+name)
	}
}

func TestShell_Run(t *testing.T) {
	fx := newFixture(t)
	in := strings.NewReader("link 20 10\n\nbogus\nexit\nlist\n")

	require.NoError(t, fx.shell.Run(context.Background(), in))

	require.Equal(t, "(aeq) Link ID: 65536\n(aeq) (aeq) (aeq) ", fx.out.String())
	require.Equal(t, "Error: no such command - 'bogus'.\n", fx.errOut.String())
}

func TestShell_RunStopsAtEOF(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.shell.Run(context.Background(), strings.NewReader("status")))

	require.Contains(t, fx.out.String(), "Nodes: 2")
	require.True(t, strings.HasSuffix(fx.out.String(), "(aeq) "))
}

func TestShell_RunHonorsCancellation(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, fx.shell.Run(ctx, strings.NewReader("list\n")))
	require.Empty(t, fx.out.String())
}

func TestShell_OnStandardGraph(t *testing.T) {
	r := testutil.NewBuilder(t).WithStandardGraph().Build()
	var out, errOut bytes.Buffer
	sh := New(Config{
		Registry: r,
		Loopback: session.NewLoopback(session.NewDispatcher(r), session.WithInUse(r.Has)),
	}, &out, &errOut)
	ctx := context.Background()

	sh.Execute(ctx, "unlink 30")
	require.Equal(t, "Error: link 30 was not created by this shell.\n", errOut.String())
	require.True(t, r.Has(testutil.LinkFLID), "links announced by the manager are left alone")

	errOut.Reset()
	sh.Execute(ctx, "link speakers:playback_FR player:output_FR")
	require.Empty(t, errOut.String())
	require.Equal(t, "Link ID: 65536\n", out.String())
	require.NoError(t, r.Check())
}
