package rimepatch

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-rimepatch/pkg/activity"
	"github.com/goliatone/go-rimepatch/pkg/store"
	"github.com/goliatone/go-rimepatch/preview"
)

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	logger          zerolog.Logger
	activityHooks   activity.Hooks
	activityChannel string
	publisher       preview.Publisher
	previewOpts     []preview.Option
	checker         *Checker
	deployer        store.Deployer
}

func applyOptions(opts []Option) sessionConfig {
	cfg := sessionConfig{
		logger:   zerolog.Nop(),
		deployer: store.NoopDeployer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger sets the session logger. Sessions log nothing by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *sessionConfig) {
		cfg.logger = logger
	}
}

// WithPreviewPublisher starts a debounced preview scheduler that publishes
// the serialized patch after edits settle.
func WithPreviewPublisher(publish preview.Publisher) Option {
	return func(cfg *sessionConfig) {
		cfg.publisher = publish
	}
}

// WithPreviewDelay overrides preview.DefaultDelay.
func WithPreviewDelay(delay time.Duration) Option {
	return func(cfg *sessionConfig) {
		cfg.previewOpts = append(cfg.previewOpts, preview.WithDelay(delay))
	}
}

// WithPreviewClock drives the preview debounce from clock.
func WithPreviewClock(clock preview.Clock) Option {
	return func(cfg *sessionConfig) {
		cfg.previewOpts = append(cfg.previewOpts, preview.WithClock(clock))
	}
}

// WithPreflight runs checker before SaveAndDeploy saves anything.
func WithPreflight(checker *Checker) Option {
	return func(cfg *sessionConfig) {
		cfg.checker = checker
	}
}

// WithDeployer sets the deployer used by Deploy. The default reports success
// without doing anything.
func WithDeployer(deployer store.Deployer) Option {
	return func(cfg *sessionConfig) {
		if deployer != nil {
			cfg.deployer = deployer
		}
	}
}
