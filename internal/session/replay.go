package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/david-sim0niants/audio-eq/internal/eventlog"
	"github.com/david-sim0niants/audio-eq/internal/log"
	"github.com/david-sim0niants/audio-eq/internal/tracing"
)

// Apply delivers one journal event to l.
func Apply(l Listener, ev eventlog.Event) {
	switch ev.Op {
	case eventlog.OpAdd:
		l.OnAdd(ev.ID, ev.Type, Props(ev.Props))
	case eventlog.OpRemove:
		l.OnRemove(ev.ID)
	}
}

// Replay delivers every event of r to l in order and returns how many were
// applied. It stops at the first decode error or when ctx is cancelled.
func Replay(ctx context.Context, r *eventlog.Reader, l Listener) (int, error) {
	ctx, span := otel.Tracer("audioeq/session").Start(ctx, tracing.SpanReplay)
	defer span.End()

	applied := 0
	for {
		if err := ctx.Err(); err != nil {
			tracing.RecordError(span, err)
			return applied, err
		}

		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			err = fmt.Errorf("replay after %d events: %w", applied, err)
			tracing.RecordError(span, err)
			return applied, err
		}

		Apply(l, ev)
		applied++
	}

	span.SetAttributes(attribute.Int(tracing.AttrResolvedCount, applied))
	log.Info(log.CatSession, "replay finished", "events", applied)
	return applied, nil
}
