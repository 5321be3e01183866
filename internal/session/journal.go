package session

import (
	"github.com/david-sim0niants/audio-eq/internal/eventlog"
	"github.com/david-sim0niants/audio-eq/internal/log"
)

// Journal records every announcement to an event log before passing it on.
// A failed write is logged and does not stop delivery.
type Journal struct {
	w    *eventlog.Writer
	next Listener
}

var _ Listener = (*Journal)(nil)

// NewJournal wraps next, recording to w.
func NewJournal(w *eventlog.Writer, next Listener) *Journal {
	return &Journal{w: w, next: next}
}

func (j *Journal) OnAdd(id uint32, typ string, props Props) {
	ev := eventlog.Event{Op: eventlog.OpAdd, ID: id, Type: typ, Props: props}
	if err := j.w.Write(ev); err != nil {
		log.ErrorErr(log.CatEventLog, "journal write failed", err, "id", id)
	}
	j.next.OnAdd(id, typ, props)
}

func (j *Journal) OnRemove(id uint32) {
	if err := j.w.Write(eventlog.Event{Op: eventlog.OpRemove, ID: id}); err != nil {
		log.ErrorErr(log.CatEventLog, "journal write failed", err, "id", id)
	}
	j.next.OnRemove(id)
}
