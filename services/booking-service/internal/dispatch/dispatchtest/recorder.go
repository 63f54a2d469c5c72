// Package dispatchtest provides a Gateway that records pushes in memory.
package dispatchtest

import (
	"context"
	"sync"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/dispatch"
)

type Recorder struct {
	mu     sync.Mutex
	pushes []dispatch.Push
}

func (r *Recorder) Send(_ context.Context, p dispatch.Push) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, p)
}

func (r *Recorder) Pushes() []dispatch.Push {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dispatch.Push(nil), r.pushes...)
}

// To returns the pushes addressed to recipientID.
func (r *Recorder) To(recipientID string) []dispatch.Push {
	var out []dispatch.Push
	for _, p := range r.Pushes() {
		if p.RecipientID == recipientID {
			out = append(out, p)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = nil
}
