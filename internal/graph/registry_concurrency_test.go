package graph

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// churn announces and removes a small graph in the id range starting at base.
func churn(r *Registry, base ID, rounds int) {
	for i := 0; i < rounds; i++ {
		// link first so that half the rounds resolve it forward
		if i%2 == 0 {
			r.NotifyLinkAdded(base+3, base+2, base+1)
		}
		r.NotifyPortAdded(base+1, "in", Input, base)
		r.NotifyNodeAdded(base, "node", "")
		r.NotifyPortAdded(base+2, "out", Output, base)
		if i%2 == 1 {
			r.NotifyLinkAdded(base+3, base+2, base+1)
		}

		switch i % 3 {
		case 0:
			r.NotifyRemoved(base + 3)
			r.NotifyRemoved(base + 1)
		case 1:
			r.NotifyRemoved(base)
			r.NotifyRemoved(base + 2)
			r.NotifyRemoved(base + 3)
		default:
			r.NotifyRemoved(base + 1)
			r.NotifyRemoved(base + 3)
		}
		r.NotifyRemoved(base)
		r.NotifyRemoved(base + 1)
		r.NotifyRemoved(base + 2)
	}
}

func TestRegistry_Concurrent_MutationsAndQueries(t *testing.T) {
	r := New()
	const numWriters = 4
	const numReaders = 4
	const rounds = 200

	var writers sync.WaitGroup
	writers.Add(numWriters)
	for w := 0; w < numWriters; w++ {
		go func(base ID) {
			defer writers.Done()
			churn(r, base, rounds)
		}(ID(100 * (w + 1)))
	}

	done := make(chan struct{})
	errs := make(chan error, numReaders)
	var readers sync.WaitGroup
	readers.Add(numReaders)
	for i := 0; i < numReaders; i++ {
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}

				if err := r.Check(); err != nil {
					errs <- err
					return
				}
				for _, n := range r.ListNodes() {
					for _, p := range append(n.Inputs, n.Outputs...) {
						if p.Owner != (Ref{ID: n.ID, Resolved: true}) {
							errs <- fmt.Errorf("node %d lists port %d owned by %+v", n.ID, p.ID, p.Owner)
							return
						}
					}
				}
				for _, p := range r.ListPorts() {
					// may have been removed since the listing
					if q, ok := r.FindPort(p.ID); ok && q.ID != p.ID {
						errs <- fmt.Errorf("FindPort(%d) returned port %d", p.ID, q.ID)
						return
					}
				}
				s := r.Stats()
				if s.Nodes < 0 || s.Nodes > numWriters {
					errs <- fmt.Errorf("impossible node count %d", s.Nodes)
					return
				}
			}
		}()
	}

	writers.Wait()
	close(done)
	readers.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.NoError(t, r.Check())
	require.Equal(t, Stats{}, r.Stats())
}
