// Package config loads rimepatch settings from defaults, a YAML file, a .env
// file and RIMEPATCH_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-rimepatch"
	"github.com/goliatone/go-rimepatch/pkg/store"
	"github.com/goliatone/go-rimepatch/preview"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RIMEPATCH_"

// DefaultListen is the default HTTP listen address.
const DefaultListen = "127.0.0.1:7331"

// Config holds the settings shared by the CLI and the HTTP server.
type Config struct {
	ConfigDir      string                `yaml:"config_dir"`
	Listen         string                `yaml:"listen"`
	LogLevel       string                `yaml:"log_level"`
	LogPretty      bool                  `yaml:"log_pretty"`
	PreviewDelay   time.Duration         `yaml:"preview_delay"`
	DeployCommand  string                `yaml:"deploy_command"`
	DeployRetries  uint64                `yaml:"deploy_retries"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Checks         []rimepatch.CheckSpec `yaml:"checks"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ConfigDir:      store.DefaultConfigDir(),
		Listen:         DefaultListen,
		LogLevel:       "info",
		PreviewDelay:   preview.DefaultDelay,
		DeployRetries:  store.DefaultDeployRetries,
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
	}
}

// LoadOptions locates the sources Load reads. Zero values pick the defaults.
type LoadOptions struct {
	// File is the YAML settings file. Defaults to DefaultFile().
	File string
	// EnvFile is a dotenv file. Defaults to ".env" in the working directory.
	EnvFile string
	// Getenv reads the process environment. Defaults to os.Getenv.
	Getenv func(string) string
}

// DefaultFile returns $XDG_CONFIG_HOME/rimepatch/config.yaml, falling back to
// the platform user config directory.
func DefaultFile() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		if runtime.GOOS == "windows" {
			base = os.Getenv("APPDATA")
		} else {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, "rimepatch", "config.yaml")
}

// Load builds a Config. Missing files are skipped; malformed ones are errors.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	file := opts.File
	if file == "" {
		file = DefaultFile()
	}
	if err := loadFile(file, &cfg); err != nil {
		return Config{}, err
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read %s: %w", envFile, err)
	}
	lookup := func(key string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return dotenv[key]
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) string) error {
	if v := lookup(EnvPrefix + "CONFIG_DIR"); v != "" {
		cfg.ConfigDir = v
	}
	if v := lookup(EnvPrefix + "LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := lookup(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := lookup(EnvPrefix + "LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sLOG_PRETTY: %w", EnvPrefix, err)
		}
		cfg.LogPretty = pretty
	}
	if v := lookup(EnvPrefix + "PREVIEW_DELAY"); v != "" {
		delay, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sPREVIEW_DELAY: %w", EnvPrefix, err)
		}
		cfg.PreviewDelay = delay
	}
	if v := lookup(EnvPrefix + "DEPLOY_COMMAND"); v != "" {
		cfg.DeployCommand = v
	}
	if v := lookup(EnvPrefix + "DEPLOY_RETRIES"); v != "" {
		retries, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %sDEPLOY_RETRIES: %w", EnvPrefix, err)
		}
		cfg.DeployRetries = retries
	}
	if v := lookup(EnvPrefix + "ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate rejects settings the binaries cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ConfigDir) == "" {
		return errors.New("config: config_dir must not be empty")
	}
	if c.PreviewDelay < 0 {
		return errors.New("config: preview_delay must not be negative")
	}
	return nil
}

// Deployer builds the deployer described by the settings: the configured
// command when set, otherwise the platform defaults.
func (c Config) Deployer() store.Deployer {
	opts := []store.DeployerOption{store.WithRetries(c.DeployRetries)}
	if command, ok := store.ParseCommand(c.DeployCommand); ok {
		opts = append(opts, store.WithCommands(command))
	}
	return store.NewCommandDeployer(opts...)
}

// Checker compiles the configured checks. It returns nil when none are set.
func (c Config) Checker(opts ...rimepatch.CheckerOption) (*rimepatch.Checker, error) {
	if len(c.Checks) == 0 {
		return nil, nil
	}
	return rimepatch.NewChecker(c.Checks, opts...)
}
