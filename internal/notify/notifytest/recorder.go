package notifytest

import (
	"context"
	"sync"

	"github.com/ksred/pageturn-api/internal/notify"
)

// Recorder is a notify.Notifier that keeps every event it is given
type Recorder struct {
	mu     sync.Mutex
	events []notify.Event
	Err    error
}

func (r *Recorder) Notify(_ context.Context, event notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

func (r *Recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Event, len(r.events))
	copy(out, r.events)
	return out
}
