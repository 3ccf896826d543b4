package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-rimepatch/phrases"
	"github.com/goliatone/go-rimepatch/pkg/activity"
)

func newPhrasesCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phrases",
		Short: "Manage custom_phrase.txt",
	}

	list := &cobra.Command{
		Use:   "list [query]",
		Short: "List phrases, optionally filtered by phrase or code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			data, err := e.store.ReadPhrases(contextOf(cmd))
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			for _, entry := range phrases.NewTable(data).Search(query) {
				line := entry.Phrase + "\t" + entry.Code
				if entry.Weight != nil {
					line += "\t" + strconv.FormatInt(*entry.Weight, 10)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <phrase> <code> [weight]",
		Short: "Append a phrase",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var weight *int64
			if len(args) == 3 {
				w, err := strconv.ParseInt(args[2], 10, 64)
				if err != nil {
					return fmt.Errorf("weight %q: %w", args[2], err)
				}
				weight = &w
			}
			return editPhrases(cmd, opts, func(table *phrases.Table) error {
				_, err := table.Add(args[0], args[1], weight)
				return err
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <phrase> [code]",
		Short: "Remove every entry for a phrase, optionally only under code",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editPhrases(cmd, opts, func(table *phrases.Table) error {
				removed := 0
				for _, entry := range table.Search(args[0]) {
					if entry.Phrase != args[0] || (len(args) == 2 && entry.Code != args[1]) {
						continue
					}
					if err := table.Remove(entry.ID); err != nil {
						return err
					}
					removed++
				}
				if removed == 0 {
					return fmt.Errorf("phrases: no entry for %q", args[0])
				}
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

// editPhrases loads the phrase table, applies change and writes it back.
func editPhrases(cmd *cobra.Command, opts *globalOptions, change func(*phrases.Table) error) error {
	e, err := opts.setup(cmd, false)
	if err != nil {
		return err
	}
	ctx := contextOf(cmd)
	data, err := e.store.ReadPhrases(ctx)
	if err != nil {
		return err
	}
	table := phrases.NewTable(data)
	if err := change(table); err != nil {
		return err
	}
	if !table.IsDirty() {
		return nil
	}
	if err := e.store.WritePhrases(ctx, table.Data()); err != nil {
		return err
	}
	table.MarkSaved()
	activity.LogHook(e.logger).Notify(ctx, activity.BuildPhrasesSavedEvent(activity.ConfigEventInput{
		Channel:  "cli",
		Metadata: map[string]any{"entries": table.Len()},
	}))
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d entries)\n", phrases.FileName, table.Len())
	return nil
}
