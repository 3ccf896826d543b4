package rimepatch

import (
	"context"

	"github.com/goliatone/go-rimepatch/pkg/activity"
)

// WithActivityHooks attaches activity hooks to the session. Nil entries are
// dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	cleaned := hooks.Clean()
	return func(cfg *sessionConfig) {
		cfg.activityHooks = cleaned
	}
}

// WithActivityChannel sets the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *sessionConfig) {
		cfg.activityChannel = channel
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (s *Session) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return s.cfg.activityHooks.Clean()
}

// emit never fails the calling operation; the emitter logs hook errors.
func (s *Session) emit(ctx context.Context, event activity.Event) {
	_ = s.emitter.Emit(ctx, event)
}

func (s *Session) eventInput(path string, oldValue, newValue any) activity.ConfigEventInput {
	return activity.ConfigEventInput{
		Document: s.name,
		Path:     path,
		OldValue: oldValue,
		NewValue: newValue,
	}
}
