package preview

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-rimepatch/document"
	"github.com/goliatone/go-rimepatch/tree"
)

// DefaultDelay is the quiet period before a preview is recomputed.
const DefaultDelay = 100 * time.Millisecond

// Publisher receives serialized previews.
type Publisher func(text string)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDelay overrides DefaultDelay. Non-positive values are ignored.
func WithDelay(delay time.Duration) Option {
	return func(s *Scheduler) {
		if delay > 0 {
			s.delay = delay
		}
	}
}

// WithClock injects the clock driving the debounce timer.
func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.timer = NewTimer(clock)
		}
	}
}

// WithLogger sets the logger used to report serialization failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// Scheduler turns a stream of patch changes into debounced previews. Only
// the patch from the latest Notify inside a quiet period is serialized.
type Scheduler struct {
	mu      sync.Mutex
	timer   *Timer
	delay   time.Duration
	publish Publisher
	latest  string
	closed  bool
	logger  zerolog.Logger
}

// NewScheduler returns a scheduler publishing to publish. A nil publisher
// still records Latest.
func NewScheduler(publish Publisher, opts ...Option) *Scheduler {
	s := &Scheduler{
		delay:   DefaultDelay,
		publish: publish,
		latest:  document.EmptyText,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.timer == nil {
		s.timer = NewTimer(nil)
	}
	return s
}

// Notify records a patch change. The patch is copied, so the caller may
// keep mutating its own mapping.
func (s *Scheduler) Notify(patch *tree.Mapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	snapshot := tree.CloneMapping(patch)
	s.timer.Schedule(func() { s.fire(snapshot) }, s.delay)
}

// Latest returns the last published preview, EmptyText before the first.
func (s *Scheduler) Latest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Pending reports whether a recomputation is waiting for the quiet period
// to elapse.
func (s *Scheduler) Pending() bool {
	return s.timer.Pending()
}

// Close cancels any pending recomputation. Later Notify calls are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.timer.Cancel()
}

func (s *Scheduler) fire(snapshot *tree.Mapping) {
	text, err := document.Serialize(snapshot)
	if err != nil {
		s.logger.Error().Err(err).Msg("preview serialization failed")
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.latest = text
	publish := s.publish
	s.mu.Unlock()
	if publish != nil {
		publish(text)
	}
}
