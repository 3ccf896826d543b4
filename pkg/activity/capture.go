package activity

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// CaptureHook records events for assertions in tests.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify records the event and returns any configured error.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Verbs returns the recorded verbs in order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.Events))
	for i, event := range h.Events {
		out[i] = event.Verb
	}
	return out
}

// LogHook writes every event to logger at info level.
func LogHook(logger zerolog.Logger) ActivityHook {
	return HookFunc(func(_ context.Context, event Event) error {
		entry := logger.Info().
			Str("verb", event.Verb).
			Str("object_type", event.ObjectType).
			Str("object_id", event.ObjectID).
			Str("channel", event.Channel)
		if event.Path != "" {
			entry = entry.Str("path", event.Path)
		}
		if len(event.Metadata) > 0 {
			entry = entry.Fields(event.Metadata)
		}
		entry.Time("occurred_at", event.OccurredAt).Msg("activity")
		return nil
	})
}
