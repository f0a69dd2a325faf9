package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var requireOracle bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			if requireOracle && !result.OracleAvailable {
				return errors.New("classifier unavailable")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&requireOracle, "require-oracle", false, "Fail when the classifier is unavailable")

	return cmd
}
