package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCmd prints the published-quiz and group catalog.
func NewListCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List published quizzes and groups available for watching",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), *configPath, *apiURL)
		},
	}
}

func runList(ctx context.Context, configPath, apiFlag string) error {
	cfg, err := loadConfig(configPath, apiFlag, "")
	if err != nil {
		return err
	}

	api := newAPIClient(cfg)
	catalog := newCatalog(cfg, api)

	quizzes, err := catalog.Quizzes(ctx)
	if err != nil {
		return fmt.Errorf("load quizzes: %w", err)
	}
	groups, err := catalog.Groups(ctx)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUIZ ID\tTITLE")
	for _, quiz := range quizzes {
		fmt.Fprintf(tw, "%s\t%s\n", quiz.ID, quiz.Title)
	}
	fmt.Fprintln(tw, "\nGROUP ID\tNAME")
	for _, group := range groups {
		fmt.Fprintf(tw, "%s\t%s\n", group.ID, group.Name)
	}
	return tw.Flush()
}
