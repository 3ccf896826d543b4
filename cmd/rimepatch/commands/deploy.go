package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newDeployCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Ask Rime to reload its configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			result, err := e.cfg.Deployer().Deploy(contextOf(cmd))
			if err != nil {
				return err
			}
			return reportDeploy(cmd, result.Success, result.Message)
		},
	}
}

func reportDeploy(cmd *cobra.Command, success bool, message string) error {
	if !success {
		return errors.New(message)
	}
	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}

func newSchemasCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List the schemas installed in the config directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			schemas, err := e.store.ListSchemas(contextOf(cmd))
			if err != nil {
				return err
			}
			for _, schema := range schemas {
				line := schema.SchemaID
				if schema.Name != "" {
					line += "\t" + schema.Name
				}
				if schema.Version != "" {
					line += "\t" + schema.Version
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}
