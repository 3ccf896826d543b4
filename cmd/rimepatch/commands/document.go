package commands

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-rimepatch"
	"github.com/goliatone/go-rimepatch/color"
	"github.com/goliatone/go-rimepatch/document"
	"github.com/goliatone/go-rimepatch/pkg/rime"
	"github.com/goliatone/go-rimepatch/tree"
)

func newGetCommand(opts *globalOptions) *cobra.Command {
	var display bool
	cmd := &cobra.Command{
		Use:   "get <name> <path>",
		Short: "Print the effective value at a slash path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			session, err := e.open(contextOf(cmd), args[0])
			if err != nil {
				return err
			}
			defer session.Close()

			value, ok := session.Get(args[1])
			if !ok {
				return fmt.Errorf("%s: no value at %s", rime.BaseFileName(args[0]), args[1])
			}
			if display && color.IsColorKey(tree.LastSegment(args[1])) {
				if s, ok := value.(tree.Scalar); ok {
					text, err := color.ToDisplay(s.Interface())
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), text)
					return nil
				}
			}
			return writeYAML(cmd, tree.ToAny(value))
		},
	}
	cmd.Flags().BoolVar(&display, "display", false, "Print color values as display colors")
	return cmd
}

func newSetCommand(opts *globalOptions) *cobra.Command {
	var deploy bool
	cmd := &cobra.Command{
		Use:   "set <name> <path> <yaml-value>",
		Short: "Override a value and save the patch",
		Long: `Store <yaml-value> under <path> in <name>.custom.yaml.

The value is parsed as YAML, so 9 is an integer, true a boolean and
[F4, Control+grave] a list. Integers under color keys are written as
0xBBGGRR literals.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := document.ParseValue(args[1], args[2])
			if err != nil {
				return err
			}
			return edit(cmd, opts, args[0], deploy, func(session *rimepatch.Session) error {
				return session.Set(contextOf(cmd), args[1], value)
			})
		},
	}
	cmd.Flags().BoolVar(&deploy, "deploy", false, "Run checks and deploy after saving")
	return cmd
}

func newUnsetCommand(opts *globalOptions) *cobra.Command {
	var deploy bool
	cmd := &cobra.Command{
		Use:   "unset <name> <path>",
		Short: "Remove an override and save the patch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return edit(cmd, opts, args[0], deploy, func(session *rimepatch.Session) error {
				removed, err := session.Remove(contextOf(cmd), args[1])
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.ErrOrStderr(), "no override at %s\n", args[1])
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&deploy, "deploy", false, "Run checks and deploy after saving")
	return cmd
}

// edit opens name, applies change and saves when the patch changed.
func edit(cmd *cobra.Command, opts *globalOptions, name string, deploy bool, change func(*rimepatch.Session) error) error {
	e, err := opts.setup(cmd, false)
	if err != nil {
		return err
	}
	ctx := contextOf(cmd)
	session, err := e.open(ctx, name)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := change(session); err != nil {
		return err
	}
	if !session.IsDirty() && !deploy {
		return nil
	}
	if deploy {
		result, err := session.SaveAndDeploy(ctx)
		if err != nil {
			return err
		}
		return reportDeploy(cmd, result.Success, result.Message)
	}
	if _, err := session.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", rime.CustomFileName(name))
	return nil
}

func newPreviewCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <name>",
		Short: "Print the patch file as it would be written",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			session, err := e.open(contextOf(cmd), args[0])
			if err != nil {
				return err
			}
			defer session.Close()
			text, err := session.Preview()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newDiffCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <name>",
		Short: "Show what the patch changes in the base document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			session, err := e.open(contextOf(cmd), args[0])
			if err != nil {
				return err
			}
			defer session.Close()

			before, err := document.Encode(session.Base())
			if err != nil {
				return err
			}
			after, err := document.Encode(session.Effective())
			if err != nil {
				return err
			}
			diff := rimepatch.DiffPreview(rime.BaseFileName(args[0]), before, after)
			if !diff.Changed() {
				fmt.Fprintln(cmd.OutOrStdout(), "no changes")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), diff.Text)
			fmt.Fprintf(cmd.OutOrStdout(), "%d additions, %d deletions\n", diff.Additions, diff.Deletions)
			return nil
		},
	}
}

func newQueryCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <name> <jsonpath>",
		Short: "Run a JSONPath selector against the effective document",
		Example: `  rimepatch query default '$.schema_list[*].schema'
  rimepatch query squirrel '$.preset_color_schemes.*.name'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			session, err := e.open(contextOf(cmd), args[0])
			if err != nil {
				return err
			}
			defer session.Close()
			results, err := session.Query(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(results, &ojg.Options{Indent: 2, Sort: true}))
			return nil
		},
	}
}

func newTraceCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <name> <path>",
		Short: "Show which layer supplies the value at a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			session, err := e.open(contextOf(cmd), args[0])
			if err != nil {
				return err
			}
			defer session.Close()

			trace := session.Trace(args[1])
			out := cmd.OutOrStdout()
			if !trace.Found {
				fmt.Fprintf(out, "%s: not set\n", args[1])
				return nil
			}
			fmt.Fprintf(out, "%s: %s\n", args[1], trace.Source)
			for _, layer := range trace.Layers {
				if !layer.Found {
					continue
				}
				line := fmt.Sprintf("  %-5s %v", layer.Source, layer.Value)
				if layer.PatchKey != "" && layer.PatchKey != args[1] {
					line += " (via " + layer.PatchKey + ")"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newCheckCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <name>",
		Short: "Run the configured preflight checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			session, err := e.open(contextOf(cmd), args[0])
			if err != nil {
				return err
			}
			defer session.Close()

			report, err := session.Check()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(report.Results) == 0 {
				fmt.Fprintln(out, "no checks configured")
				return nil
			}
			for _, result := range report.Results {
				status := "ok  "
				if !result.Passed {
					status = "FAIL"
				}
				line := status + " " + result.Name
				if !result.Passed && result.Message != "" {
					line += ": " + result.Message
				}
				fmt.Fprintln(out, line)
			}
			if !report.Passed() {
				return fmt.Errorf("%d of %d checks failed", len(report.Failures()), len(report.Results))
			}
			return nil
		},
	}
}

func writeYAML(cmd *cobra.Command, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), strings.TrimSuffix(string(data), "\n")+"\n")
	return nil
}
