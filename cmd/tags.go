package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bddkit/internal/config"
	"bddkit/internal/runner"
	"bddkit/internal/tags"
)

func newTagsCmd() *cobra.Command {
	var project, extra string
	var godogFilter bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Print the tag expression used to select scenarios",
		Long: `Print the godog tag expression "bddkit run" would use for the
active project. Extra tags may be a comma list (smoke,critical) or a full
tag expression ("@smoke and not @slow"). With --godog the expression is
printed in the filter syntax handed to godog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := runner.New(loadedConfig).TagExpression(runner.Configuration{
				Project: project,
				Tags:    extra,
			})
			if err != nil {
				return err
			}
			if godogFilter {
				if expr, err = tags.ToGodog(expr); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), expr)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project whose scenarios are selected (default: configured project)")
	cmd.Flags().StringVar(&extra, "tags", "", "Extra tags ANDed onto the project expression")
	cmd.Flags().BoolVar(&godogFilter, "godog", false, "Print the filter in godog syntax")
	_ = cmd.RegisterFlagCompletionFunc("project", completeProjectFlag)

	return cmd
}

// completeProjectFlag provides shell completion for the project flag
func completeProjectFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		cfg = config.GetDefaultConfig()
	}
	names := make([]string, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		names = append(names, p.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
