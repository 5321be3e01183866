package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/david-sim0niants/audio-eq/internal/eventlog"
	"github.com/david-sim0niants/audio-eq/internal/graph"
)

func TestBuilder_WithNode(t *testing.T) {
	r := NewBuilder(t).
		WithNode(1, "speakers", Description("Built-in Audio")).
		WithNode(2, "bare").
		Build()

	n, ok := r.FindNode(1)
	require.True(t, ok)
	require.Equal(t, "speakers", n.Name)
	require.Equal(t, "Built-in Audio", n.Description)

	n, ok = r.FindNode(2)
	require.True(t, ok)
	require.Empty(t, n.Description)
}

func TestBuilder_WithPort(t *testing.T) {
	r := NewBuilder(t).
		WithNode(1, "n").
		WithPort(10, "in", In(), Owner(1)).
		WithPort(11, "out", Out(), Owner(1)).
		WithPort(12, "default").
		Build()

	p, _ := r.FindPort(10)
	require.Equal(t, graph.Input, p.Direction)
	require.Equal(t, graph.Ref{ID: 1, Resolved: true}, p.Owner)

	p, _ = r.FindPort(11)
	require.Equal(t, graph.Output, p.Direction)

	p, _ = r.FindPort(12)
	require.Equal(t, graph.Output, p.Direction)
	require.Equal(t, graph.Ref{ID: graph.Unowned}, p.Owner)
}

func TestBuilder_WithRemoval(t *testing.T) {
	r := NewBuilder(t).
		WithStandardGraph().
		WithRemoval(LinkFLID).
		Build()

	require.False(t, r.Has(LinkFLID))
	require.Equal(t, 4, r.Stats().Ports)
}

func TestBuilder_StandardGraph(t *testing.T) {
	r := NewBuilder(t).WithStandardGraph().Build()

	require.Equal(t, graph.Stats{Nodes: 2, Ports: 4, Links: 1}, r.Stats())
	p, _ := r.FindPort(OutputFLID)
	_, linked := p.LinkedTo(PlaybackFLID)
	require.True(t, linked)
}

func TestBuilder_ForwardReferencesResolveToStandardGraph(t *testing.T) {
	forward := NewBuilder(t).WithForwardReferences().Build()
	standard := NewBuilder(t).WithStandardGraph().Build()

	require.Equal(t, standard.Stats(), forward.Stats())
	require.Equal(t, standard.ListLinks(), forward.ListLinks())
	for _, id := range []graph.ID{PlaybackFLID, PlaybackFRID, OutputFLID, OutputFRID} {
		a, _ := standard.FindPort(id)
		b, _ := forward.FindPort(id)
		require.Equal(t, a, b, "port %d", id)
	}
}

func TestBuilder_EventsIsACopy(t *testing.T) {
	b := NewBuilder(t).WithNode(1, "n")
	events := b.Events()
	events[0].ID = 99

	require.Equal(t, uint32(1), b.Events()[0].ID)
}

func TestBuilder_WriteLog(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(t).WithStandardGraph()

	for _, name := range []string{"graph.jsonl", "graph.yaml"} {
		path := b.WriteLog(filepath.Join(dir, name))

		f, err := os.Open(path)
		require.NoError(t, err)
		format, err := eventlog.FormatFromPath(path)
		require.NoError(t, err)
		reader, err := eventlog.NewReader(f, format)
		require.NoError(t, err)
		events, err := reader.ReadAll()
		require.NoError(t, err)
		require.NoError(t, f.Close())

		require.Equal(t, b.Events(), events, name)
	}
}
