package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pins/pkg/pins"
)

const modulePath = "github.com/mesh-intelligence/pins"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pins version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pins v%s\nmodule: %s\n", pins.Version, modulePath)
			return nil
		},
	}
}
