package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
)

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// render writes obj to w: frames as CSV, bytes verbatim, anything else as
// indented JSON.
func render(w io.Writer, obj any) error {
	switch v := obj.(type) {
	case dataframe.DataFrame:
		return v.WriteCSV(w)
	case *dataframe.DataFrame:
		return v.WriteCSV(w)
	case []byte:
		_, err := w.Write(v)
		return err
	}
	return printJSON(w, obj)
}

// renderFile writes obj to a local file with render.
func renderFile(path string, obj any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f, obj); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
