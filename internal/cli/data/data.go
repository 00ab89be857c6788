package data

import (
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/internal/cli/config"
)

func New(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Historical dataset tools",
	}

	cmd.AddCommand(
		newBinanceCmd(rc),
	)

	return cmd
}
