package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pins/pkg/types"
)

func (a *app) newReadCmd() *cobra.Command {
	var (
		version     string
		out         string
		allowUnsafe bool
	)
	cmd := &cobra.Command{
		Use:   "read <name>",
		Short: "Read the newest or a given version of a pin",
		Long: `Read loads a pin and prints it: frames as CSV, raw files verbatim,
everything else as JSON.

Types that are unsafe to decode (gob) are refused unless --allow-unsafe is
set, or allow_pickle_read is enabled in config.yaml or PINS_ALLOW_PICKLE_READ.
--allow-unsafe=false refuses them even when the board allows them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := types.ReadOptions{Version: version}
			if cmd.Flags().Changed("allow-unsafe") {
				opts.AllowUnsafe = types.Allow(allowUnsafe)
			}

			b, err := a.openBoard(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			obj, err := b.PinRead(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if out != "" {
				return renderFile(out, obj)
			}
			return render(cmd.OutOrStdout(), obj)
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "version to read (default: newest)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&allowUnsafe, "allow-unsafe", false, "allow decoding unsafe formats for this read")
	return cmd
}
