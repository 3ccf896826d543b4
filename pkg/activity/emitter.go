package activity

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "editor"

// Config holds emitter defaults. The zero Logger discards output.
type Config struct {
	Channel string
	Logger  zerolog.Logger
}

// Emitter stamps the default channel on events and hands them to hooks.
// Failures are logged at warn level and returned; callers editing a document
// are expected to carry on regardless.
type Emitter struct {
	hooks   Hooks
	channel string
	logger  zerolog.Logger
}

// NewEmitter builds an emitter. Nil hooks are dropped; with none left the
// emitter is disabled.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &Emitter{hooks: hooks.Clean(), channel: channel, logger: cfg.Logger}
}

// Enabled reports whether any hook will see events. Safe on nil.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Channel returns the default channel.
func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.channel
}

// Emit delivers event to every hook.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	err := e.hooks.Notify(ctx, event)
	if err != nil {
		e.logger.Warn().Err(err).Str("verb", event.Verb).Str("object_id", event.ObjectID).Msg("activity hook failed")
	}
	return err
}
