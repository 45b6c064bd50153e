package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pins/pkg/types"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize pins configuration and the local board",
		Long: "Create the configuration directory with a default config.yaml and,\n" +
			"for the file backend, the board directory.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	cfg, err := a.resolveConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Backend == types.BackendFile {
		if err := os.MkdirAll(filepath.FromSlash(cfg.Root), 0o755); err != nil {
			return fmt.Errorf("create board directory: %w", err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Board initialized (%s: %s)\n", cfg.Backend, cfg.Root)
	return nil
}
