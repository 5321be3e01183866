package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/david-sim0niants/audio-eq/internal/eventlog"
	"github.com/david-sim0niants/audio-eq/internal/graph"
)

// countingListener counts deliveries so tests can wait for Follow to catch up.
type countingListener struct {
	mu   sync.Mutex
	next Listener
	n    int
}

func (c *countingListener) OnAdd(id uint32, typ string, props Props) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	c.next.OnAdd(id, typ, props)
}

func (c *countingListener) OnRemove(id uint32) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	c.next.OnRemove(id)
}

func (c *countingListener) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func appendTo(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestFollow_AppliesExistingAndAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"op":"add","id":1,"type":"PipeWire:Interface:Node","props":{"node.name":"sink"}}`+"\n"), 0600))

	r := graph.New()
	l := &countingListener{next: NewDispatcher(r)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, l, 20*time.Millisecond) }()

	require.Eventually(t, func() bool { return r.Has(1) }, 2*time.Second, 10*time.Millisecond)

	// A partial line is held back until its newline arrives.
	appendTo(t, path, `{"op":"add","id":10,"type":"PipeWire:Interface:Port",`)
	time.Sleep(100 * time.Millisecond)
	require.False(t, r.Has(10))

	appendTo(t, path, `"props":{"node.id":"1","port.direction":"in"}}`+"\n"+"not json\n"+`{"op":"remove","id":1}`+"\n")
	require.Eventually(t, func() bool { return l.count() == 3 }, 2*time.Second, 10*time.Millisecond)

	require.True(t, r.Has(10))
	require.False(t, r.Has(1))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("follow did not stop")
	}
}

func TestFollow_RejectsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	err := Follow(context.Background(), path, &recorder{}, time.Millisecond)
	require.ErrorIs(t, err, eventlog.ErrFollowUnsupported)
}

func TestFollow_MissingFile(t *testing.T) {
	err := Follow(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"), &recorder{}, time.Millisecond)
	require.Error(t, err)
}
