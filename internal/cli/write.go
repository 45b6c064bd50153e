package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pins/internal/drivers"
	"github.com/mesh-intelligence/pins/pkg/types"
)

type writeFlags struct {
	typeID      string
	title       string
	description string
	tags        []string
	suffix      bool
}

func (a *app) newWriteCmd() *cobra.Command {
	var f writeFlags
	cmd := &cobra.Command{
		Use:   "write <name> <file>",
		Short: "Pin the contents of a local file as a new version",
		Long: `Write decodes a local file and pins it as a new version of <name>.

The type is taken from --type, else from the file extension (.csv, .sqlite,
.json); anything else is pinned as raw bytes with type "file".

Example:
  pins write prices prices.csv
  pins write settings settings.json --title "Model settings" --tag prod`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWrite(cmd, args[0], args[1], f)
		},
	}
	cmd.Flags().StringVar(&f.typeID, "type", "", "pin type (default: inferred from the file extension)")
	cmd.Flags().StringVar(&f.title, "title", "", "title (default: generated)")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "tag to record; repeatable")
	cmd.Flags().BoolVar(&f.suffix, "suffix", false, "append the type's suffix to the stored file name")
	return cmd
}

func (a *app) runWrite(cmd *cobra.Command, name, file string, f writeFlags) error {
	obj, typeID, err := decodeLocal(drivers.NewDefaultRegistry(), file, f.typeID)
	if err != nil {
		return err
	}

	b, err := a.openBoard(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	m, err := b.PinWrite(cmd.Context(), obj, name, types.WriteOptions{
		Type:        typeID,
		Title:       f.title,
		Description: f.description,
		Tags:        f.tags,
		ApplySuffix: f.suffix,
	})
	if err != nil {
		return err
	}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), m)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pinned %s version %s (%s, %d bytes)\n", name, m.Version, m.Type, m.FileSize)
	return nil
}

// decodeLocal loads a local file into the object the chosen driver pins.
// Only safe drivers decode local input; unsafe types are refused.
func decodeLocal(r *drivers.Registry, file, typeID string) (any, string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, "", err
	}

	var d drivers.Driver
	switch {
	case typeID != "":
		d, err = r.Resolve(typeID)
		if err != nil {
			return nil, "", err
		}
	default:
		var ok bool
		if d, ok = r.BySuffix(filepath.Ext(file)); !ok {
			d, err = r.Resolve(drivers.TypeFile)
			if err != nil {
				return nil, "", err
			}
		}
	}

	if err := (drivers.Gate{}).Check(d, nil); err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", file, err)
	}
	obj, err := d.Load(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s as %s: %w", file, d.Type, err)
	}
	return obj, d.Type, nil
}
