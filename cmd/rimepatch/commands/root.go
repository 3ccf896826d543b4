// Package commands provides the CLI commands for rimepatch.
package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-rimepatch"
	"github.com/goliatone/go-rimepatch/internal/config"
	"github.com/goliatone/go-rimepatch/internal/logging"
	"github.com/goliatone/go-rimepatch/pkg/activity"
	"github.com/goliatone/go-rimepatch/pkg/store"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configFile string
	configDir  string
	logLevel   string
	printLogs  bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "rimepatch",
		Short: "Edit Rime configuration through .custom.yaml patches",
		Long: `rimepatch reads Rime base documents (default, squirrel, schema ids),
edits their <name>.custom.yaml override patches and asks Rime to redeploy.

Run 'rimepatch serve' to expose the editing API over HTTP.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Settings file (default $XDG_CONFIG_HOME/rimepatch/config.yaml)")
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "Rime user directory")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	root.PersistentFlags().BoolVar(&opts.printLogs, "print-logs", false, "Print logs to stderr")

	root.SetVersionTemplate(fmt.Sprintf("rimepatch %s (%s)\n", Version, BuildTime))

	root.AddCommand(
		newServeCommand(opts),
		newGetCommand(opts),
		newSetCommand(opts),
		newUnsetCommand(opts),
		newPreviewCommand(opts),
		newDiffCommand(opts),
		newQueryCommand(opts),
		newTraceCommand(opts),
		newCheckCommand(opts),
		newDeployCommand(opts),
		newSchemasCommand(opts),
		newColorCommand(),
		newPhrasesCommand(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// env is what a command needs after flags and settings are resolved.
type env struct {
	cfg    config.Config
	logger zerolog.Logger
	store  *store.FileStore
}

func (o *globalOptions) setup(cmd *cobra.Command, alwaysLog bool) (*env, error) {
	cfg, err := config.Load(config.LoadOptions{File: o.configFile})
	if err != nil {
		return nil, err
	}
	if flag := cmd.Flag("config-dir"); flag != nil && flag.Changed {
		cfg.ConfigDir = o.configDir
	}
	if flag := cmd.Flag("log-level"); flag != nil && flag.Changed {
		cfg.LogLevel = o.logLevel
	}

	logger := zerolog.Nop()
	if o.printLogs || alwaysLog {
		logger = logging.New(logging.Config{
			Level:  logging.ParseLevel(cfg.LogLevel),
			Output: cmd.ErrOrStderr(),
			Pretty: cfg.LogPretty,
		})
	}
	return &env{cfg: cfg, logger: logger, store: store.NewFileStore(cfg.ConfigDir)}, nil
}

func (e *env) sessionOptions() ([]rimepatch.Option, error) {
	checker, err := e.cfg.Checker(rimepatch.WithEvaluatorLogger(rimepatch.ZerologEvaluatorLogger(e.logger)))
	if err != nil {
		return nil, err
	}
	opts := []rimepatch.Option{
		rimepatch.WithLogger(e.logger),
		rimepatch.WithDeployer(e.cfg.Deployer()),
		rimepatch.WithActivityHooks(activity.Hooks{activity.LogHook(e.logger)}),
		rimepatch.WithActivityChannel("cli"),
	}
	if checker != nil {
		opts = append(opts, rimepatch.WithPreflight(checker))
	}
	return opts, nil
}

func (e *env) open(ctx context.Context, name string) (*rimepatch.Session, error) {
	opts, err := e.sessionOptions()
	if err != nil {
		return nil, err
	}
	session := rimepatch.NewSession(name, e.store, opts...)
	if err := session.Load(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
