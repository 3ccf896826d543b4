package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-rimepatch/color"
)

func newColorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "color",
		Short: "Convert between Rime BGR literals and display colors",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "decode <literal>",
			Short: "Print the channels of a 0xBBGGRR or 0xAABBGGRR literal",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := color.Decode(args[0])
				if err != nil {
					return err
				}
				line := fmt.Sprintf("red=%d green=%d blue=%d", c.Red, c.Green, c.Blue)
				if c.HasAlpha {
					line += fmt.Sprintf(" alpha=%d", c.Alpha)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
				return nil
			},
		},
		&cobra.Command{
			Use:   "encode <red> <green> <blue> [alpha]",
			Short: "Build a BGR literal from channel values",
			Args:  cobra.RangeArgs(3, 4),
			RunE: func(cmd *cobra.Command, args []string) error {
				channels := make([]uint8, len(args))
				for i, arg := range args {
					v, err := strconv.ParseUint(arg, 0, 8)
					if err != nil {
						return fmt.Errorf("channel %q: %w", arg, err)
					}
					channels[i] = uint8(v)
				}
				c := color.Opaque(channels[0], channels[1], channels[2])
				if len(channels) == 4 {
					c = color.WithAlpha(channels[0], channels[1], channels[2], channels[3])
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.Encode(c))
				return nil
			},
		},
		&cobra.Command{
			Use:   "display <literal>",
			Short: "Convert a stored literal to #rrggbb or rgba()",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				text, err := color.ToDisplay(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			},
		},
		&cobra.Command{
			Use:   "stored <#rrggbb>",
			Short: "Convert a display color to a stored 0xBBGGRR literal",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				literal, err := color.ToStored(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), literal)
				return nil
			},
		},
	)
	return cmd
}
