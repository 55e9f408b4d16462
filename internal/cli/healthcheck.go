package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
	"github.com/joseph-ayodele/receipt-processor/internal/repository"
)

// NewHealthcheckCommand creates the healthcheck command.
func NewHealthcheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "healthcheck",
		Short:        "Open the configured store and ping it",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.config()
			if err != nil {
				return err
			}
			logger := common.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, false)
			ctx := cmd.Context()

			store, err := repository.Open(ctx, cfg.Store, logger)
			if err != nil {
				return fmt.Errorf("store health: FAIL (%w)", err)
			}
			defer store.Close()

			if err := repository.HealthCheck(ctx, store.Receipts, cfg.Store.DialTimeout, logger); err != nil {
				return fmt.Errorf("store health: FAIL (%w)", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "store health: OK (%s)\n", cfg.Store.Driver)
			return nil
		},
	}
}
