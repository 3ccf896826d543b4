package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry defaults for CommandDeployer.
const (
	DefaultDeployRetries         = 2
	DefaultDeployInitialInterval = 250 * time.Millisecond
	DefaultDeployMaxInterval     = 2 * time.Second
)

// Command is one reload command and the message reported when it succeeds.
type Command struct {
	Name    string
	Args    []string
	Success string
}

// DefaultCommands returns the reload commands for a platform, tried in
// order until one succeeds.
func DefaultCommands(goos string) []Command {
	switch goos {
	case "darwin":
		return []Command{{
			Name:    "/Library/Input Methods/Squirrel.app/Contents/MacOS/Squirrel",
			Args:    []string{"--reload"},
			Success: "已通知鼠须管重新部署",
		}}
	case "linux":
		return []Command{
			{Name: "fcitx5-remote", Args: []string{"-r"}, Success: "Fcitx5 Rime 已重新部署"},
			{Name: "ibus", Args: []string{"write-cache"}, Success: "IBus Rime 已重新部署"},
		}
	case "windows":
		return []Command{{
			Name:    `C:\Program Files (x86)\Rime\weasel-0.15.0\WeaselDeployer.exe`,
			Args:    []string{"/deploy"},
			Success: "小狼毫已重新部署",
		}}
	default:
		return nil
	}
}

// ParseCommand splits a configured command line on whitespace.
func ParseCommand(line string) (Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Name: fields[0], Args: fields[1:], Success: "deploy command succeeded"}, true
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, msg)
		}
		return out, err
	}
	return out, nil
}

// DeployerOption configures a CommandDeployer.
type DeployerOption func(*CommandDeployer)

// WithCommands replaces the platform defaults.
func WithCommands(commands ...Command) DeployerOption {
	return func(d *CommandDeployer) {
		d.commands = append([]Command(nil), commands...)
	}
}

// WithRetries sets how many times each command is retried after failing.
func WithRetries(retries uint64) DeployerOption {
	return func(d *CommandDeployer) {
		d.retries = retries
	}
}

// WithRunner replaces process execution, for tests.
func WithRunner(run Runner) DeployerOption {
	return func(d *CommandDeployer) {
		if run != nil {
			d.run = run
		}
	}
}

// WithBackOff sets the interval bounds between retries.
func WithBackOff(initial, max time.Duration) DeployerOption {
	return func(d *CommandDeployer) {
		d.initial, d.max = initial, max
	}
}

// CommandDeployer runs reload commands in order until one succeeds. Each
// command is retried with exponential backoff before moving on to the next.
type CommandDeployer struct {
	commands []Command
	retries  uint64
	initial  time.Duration
	max      time.Duration
	run      Runner
}

func NewCommandDeployer(opts ...DeployerOption) *CommandDeployer {
	d := &CommandDeployer{
		commands: DefaultCommands(runtime.GOOS),
		retries:  DefaultDeployRetries,
		initial:  DefaultDeployInitialInterval,
		max:      DefaultDeployMaxInterval,
		run:      execRunner,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

func (d *CommandDeployer) Deploy(ctx context.Context) (DeployResult, error) {
	if len(d.commands) == 0 {
		return DeployResult{Success: false, Message: "部署失败: 不支持的平台"}, nil
	}
	var failures []string
	for _, command := range d.commands {
		err := backoff.Retry(func() error {
			_, err := d.run(ctx, command.Name, command.Args...)
			if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
				return backoff.Permanent(err)
			}
			return err
		}, d.newBackOff(ctx))
		if err == nil {
			return DeployResult{Success: true, Message: command.Success}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return DeployResult{}, fmt.Errorf("store: deploy: %w", ctxErr)
		}
		failures = append(failures, fmt.Sprintf("%s: %v", command.Name, err))
	}
	return DeployResult{Success: false, Message: "部署失败: " + strings.Join(failures, "; ")}, nil
}

func (d *CommandDeployer) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.initial
	b.MaxInterval = d.max
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, d.retries), ctx)
}
