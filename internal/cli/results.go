package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newResultsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "results [session-id]",
		Short: "List recorded game results",
		Long: `List the most recent finished games, newest first.

With a session id, list every round played in that session instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/results?limit=%d", limit)
			if len(args) == 1 {
				path = "/api/v1/results/" + url.PathEscape(args[0])
			}

			var result ResultList
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results (1-100)")

	return cmd
}
