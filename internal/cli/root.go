package cli

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-processor/internal/common"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile  string
	LogLevel string
}

// NewRootCommand creates the root command for receiptsd.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "receiptsd",
		Short: "Receipt processor",
		Long:  "Scores purchase receipts and serves the results over HTTP and gRPC.",

		// main prints the returned error once.
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.EnvFile != "" {
				common.LoadDotEnv(opts.EnvFile)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load when present")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewScoreCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewHealthcheckCommand(opts))

	return cmd
}

// config loads and validates the environment configuration, applying flag overrides.
func (o *RootOptions) config() (*common.Config, error) {
	cfg := common.LoadConfig()
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

