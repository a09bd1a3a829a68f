package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/aluzed/massive-collections"

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the massive-collections version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "massive-collections %s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
