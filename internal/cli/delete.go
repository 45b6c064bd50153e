package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newDeleteCmd() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete one version of a pin, or the whole pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBoard(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.PinDelete(cmd.Context(), args[0], version); err != nil {
				return err
			}
			if version == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s version %s\n", args[0], version)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "version to delete (default: every version)")
	return cmd
}

func (a *app) newPruneCmd() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune <name>",
		Short: "Delete all but the newest versions of a pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBoard(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			deleted, err := b.PinVersionsPrune(cmd.Context(), args[0], keep)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				if deleted == nil {
					deleted = []string{}
				}
				return printJSON(cmd.OutOrStdout(), deleted)
			}
			for _, v := range deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s version %s\n", args[0], v)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 1, "number of newest versions to keep")
	return cmd
}
