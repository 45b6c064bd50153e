package drivers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// csvTypesPrefix starts the comment line that records column types ahead
// of the header, e.g. "# pins:types int,string".
const csvTypesPrefix = "# pins:types "

func saveCSV(df dataframe.DataFrame, filePath string) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	kinds := make([]string, 0, df.Ncol())
	for _, t := range df.Types() {
		kinds = append(kinds, string(t))
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", csvTypesPrefix, strings.Join(kinds, ",")); err != nil {
		f.Close()
		return err
	}
	if err := df.WriteCSV(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// loadCSV reads a frame, restoring the recorded column types. Files
// without a types line fall back to type detection.
func loadCSV(data []byte) (any, error) {
	line, rest, found := bytes.Cut(data, []byte("\n"))
	if !bytes.HasPrefix(line, []byte(csvTypesPrefix)) {
		return readCSV(data)
	}
	if !found {
		return dataframe.DataFrame{}, nil
	}
	kinds, err := parseCSVTypes(strings.TrimSpace(strings.TrimPrefix(string(line), csvTypesPrefix)))
	if err != nil {
		return nil, err
	}
	header, err := csv.NewReader(bytes.NewReader(rest)).Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	if len(header) != len(kinds) {
		return nil, fmt.Errorf("csv types: %d types for %d columns", len(kinds), len(header))
	}
	byName := make(map[string]series.Type, len(header))
	for i, name := range header {
		byName[name] = kinds[i]
	}
	return readCSV(rest, dataframe.DetectTypes(false), dataframe.WithTypes(byName))
}

func readCSV(data []byte, opts ...dataframe.LoadOption) (any, error) {
	df := dataframe.ReadCSV(bytes.NewReader(data), opts...)
	if df.Err != nil {
		return nil, df.Err
	}
	return df, nil
}

func parseCSVTypes(s string) ([]series.Type, error) {
	if s == "" {
		return nil, nil
	}
	var out []series.Type
	for _, k := range strings.Split(s, ",") {
		switch t := series.Type(k); t {
		case series.String, series.Int, series.Float, series.Bool:
			out = append(out, t)
		default:
			return nil, fmt.Errorf("csv types: unknown column type %q", k)
		}
	}
	return out, nil
}
