package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/david-sim0niants/audio-eq/internal/filter/lowpass"
	"github.com/david-sim0niants/audio-eq/internal/graph"
	"github.com/david-sim0niants/audio-eq/internal/tracing"
)

func newLiveSession(t *testing.T, opts ...LoopbackOption) (*graph.Registry, *Loopback) {
	t.Helper()
	r := graph.New()
	opts = append([]LoopbackOption{WithInUse(r.Has)}, opts...)
	lb := NewLoopback(NewDispatcher(r), opts...)

	d := NewDispatcher(r)
	d.OnAdd(1, TypeNode, Props{KeyNodeName: "sink"})
	d.OnAdd(10, TypePort, Props{KeyPortName: "in", KeyPortDirection: "in", KeyNodeID: "1"})
	d.OnAdd(20, TypePort, Props{KeyPortName: "out", KeyNodeID: "1"})
	return r, lb
}

func TestLoopback_LinkAndUnlink(t *testing.T) {
	r, lb := newLiveSession(t, WithIDBase(500))
	require.NotEqual(t, uuid.Nil, lb.ID())

	out, _ := r.FindPort(20)
	in, _ := r.FindPort(10)

	id, err := lb.LinkPorts(context.Background(), out, in)
	require.NoError(t, err)
	require.Equal(t, graph.ID(500), id)
	require.Equal(t, []graph.ID{500}, lb.Links())

	l, ok := r.FindLink(id)
	require.True(t, ok)
	require.Equal(t, graph.Ref{ID: 20, Resolved: true}, l.Output)
	require.Equal(t, graph.Ref{ID: 10, Resolved: true}, l.Input)

	require.NoError(t, lb.UnlinkPorts(context.Background(), id))
	_, ok = r.FindLink(id)
	require.False(t, ok)
	require.Empty(t, lb.Links())

	err = lb.UnlinkPorts(context.Background(), id)
	require.ErrorIs(t, err, ErrUnknownLink)
}

func TestLoopback_RejectsDirectionMismatch(t *testing.T) {
	r, lb := newLiveSession(t)
	out, _ := r.FindPort(20)
	in, _ := r.FindPort(10)

	_, err := lb.LinkPorts(context.Background(), in, out)
	require.ErrorIs(t, err, ErrDirectionMismatch)

	_, err = lb.LinkPorts(context.Background(), out, out)
	require.ErrorIs(t, err, ErrDirectionMismatch)
	require.Empty(t, r.ListLinks())
}

func TestLoopback_UnlinkRejectsForeignLinks(t *testing.T) {
	r, lb := newLiveSession(t)
	NewDispatcher(r).OnAdd(300, TypeLink, Props{KeyLinkOutputPort: "20", KeyLinkInputPort: "10"})

	err := lb.UnlinkPorts(context.Background(), 300)
	require.ErrorIs(t, err, ErrUnknownLink)
	_, ok := r.FindLink(300)
	require.True(t, ok)
}

func TestLoopback_SkipsIDsInUse(t *testing.T) {
	r, lb := newLiveSession(t, WithIDBase(10))
	out, _ := r.FindPort(20)
	in, _ := r.FindPort(10)

	id, err := lb.LinkPorts(context.Background(), out, in)
	require.NoError(t, err)
	require.Equal(t, graph.ID(11), id, "10 is a live port")
}

func TestLoopback_Connect(t *testing.T) {
	r, lb := newLiveSession(t)
	ctx := context.Background()

	id, err := lb.Connect(ctx, r, 10, 20)
	require.NoError(t, err, "ports may be given input first")
	l, _ := r.FindLink(id)
	require.Equal(t, graph.ID(20), l.Output.ID)

	_, err = lb.Connect(ctx, r, 10, 99)
	require.ErrorIs(t, err, ErrNoSuchPort)

	NewDispatcher(r).OnAdd(30, TypePort, Props{KeyPortDirection: "in"})
	_, err = lb.Connect(ctx, r, 10, 30)
	require.ErrorIs(t, err, ErrDirectionMismatch)
}

func TestLoopback_CancelledContext(t *testing.T) {
	r, lb := newLiveSession(t)
	out, _ := r.FindPort(20)
	in, _ := r.FindPort(10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lb.LinkPorts(ctx, out, in)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, lb.UnlinkPorts(ctx, 1), context.Canceled)
}

func TestLoopback_AnnounceFilter(t *testing.T) {
	r := graph.New()
	lb := NewLoopback(NewDispatcher(r), WithInUse(r.Has))

	f, err := lowpass.New(2000, 44100, 2)
	require.NoError(t, err)
	node := lb.AnnounceFilter("audioeq-lowpass", "AudioEQ: low pass filter", f)

	n, ok := r.FindNode(node.ID)
	require.True(t, ok)
	require.Equal(t, "audioeq-lowpass", n.Name)
	require.Equal(t, 2, n.NumInputPorts())
	require.Equal(t, 2, n.NumOutputPorts())
	require.Equal(t, "lp-in_L", n.InputPort(0).Name)
	require.Equal(t, "lp-out_R", n.OutputPort(1).Name)
	require.Equal(t, node.Inputs[0], n.InputPort(0).ID)

	lb.Withdraw(node)
	require.Equal(t, graph.Stats{}, r.Stats())
}

func TestLoopback_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r, lb := newLiveSession(t, WithLoopbackTracer(tp.Tracer("test")))
	out, _ := r.FindPort(20)
	in, _ := r.FindPort(10)

	_, err := lb.LinkPorts(context.Background(), out, in)
	require.NoError(t, err)
	_ = lb.UnlinkPorts(context.Background(), 4242)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	require.Equal(t, tracing.SpanLinkPorts, spans[0].Name)
	require.Equal(t, codes.Unset, spans[0].Status.Code)
	require.Equal(t, tracing.SpanUnlinkPorts, spans[1].Name)
	require.Equal(t, codes.Error, spans[1].Status.Code)
}
