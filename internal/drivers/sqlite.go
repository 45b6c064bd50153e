package drivers

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	_ "modernc.org/sqlite"
)

// sqliteTable is the table holding the pinned frame inside the database file.
const sqliteTable = "data"

// Column declarations used to recover gota series types on load.
var sqliteDecl = map[series.Type]string{
	series.Int:    "INTEGER",
	series.Float:  "REAL",
	series.Bool:   "BOOLEAN",
	series.String: "TEXT",
}

func sqliteDriver() Driver {
	return Driver{
		Type:    TypeSQLite,
		Suffix:  ".sqlite",
		Safety:  Safe,
		Accepts: isFrame,
		Save: func(obj any, filePath string) error {
			df, _ := asFrame(obj)
			return saveSQLite(df, filePath)
		},
		Load: loadSQLite,
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func saveSQLite(df dataframe.DataFrame, filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return err
	}
	defer db.Close()

	names := df.Names()
	kinds := df.Types()
	cols := make([]string, len(names))
	marks := make([]string, len(names))
	for i, name := range names {
		decl, ok := sqliteDecl[kinds[i]]
		if !ok {
			decl = "TEXT"
		}
		cols[i] = quoteIdent(name) + " " + decl
		marks[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(sqliteTable), strings.Join(cols, ", "))
	if _, err := db.Exec(create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(sqliteTable), strings.Join(marks, ", "))
	stmt, err := tx.Prepare(insert)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	nrows, ncols := df.Dims()
	row := make([]any, ncols)
	for i := 0; i < nrows; i++ {
		for j := 0; j < ncols; j++ {
			e := df.Elem(i, j)
			if e.IsNA() {
				row[j] = nil
				continue
			}
			row[j] = e.Val()
		}
		if _, err := stmt.Exec(row...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func loadSQLite(data []byte) (any, error) {
	dir, err := os.MkdirTemp("", "pins-sqlite-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	dbPath := filepath.Join(dir, "data.sqlite")
	if err := os.WriteFile(dbPath, data, 0o600); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	names, kinds, err := sqliteColumns(db)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s", quoteIdent(sqliteTable)))
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	defer rows.Close()

	records := make([][]string, len(names))
	values := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			records[i] = append(records[i], sqliteString(v, kinds[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = series.New(records[i], kinds[i], name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return nil, df.Err
	}
	return df, nil
}

// sqliteColumns reads column names and series types from the table schema.
func sqliteColumns(db *sql.DB) ([]string, []series.Type, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(sqliteTable)))
	if err != nil {
		return nil, nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var (
		names []string
		kinds []series.Type
	)
	for rows.Next() {
		var (
			cid     int
			name    string
			decl    string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &decl, &notnull, &dflt, &pk); err != nil {
			return nil, nil, err
		}
		names = append(names, name)
		kinds = append(kinds, seriesType(decl))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("table %q not found", sqliteTable)
	}
	return names, kinds, nil
}

func seriesType(decl string) series.Type {
	for t, d := range sqliteDecl {
		if strings.EqualFold(decl, d) {
			return t
		}
	}
	return series.String
}

// sqliteString renders a scanned value the way gota parses records. NULL
// becomes "NaN", which gota reads back as a missing element.
func sqliteString(v any, kind series.Type) string {
	switch x := v.(type) {
	case nil:
		return "NaN"
	case int64:
		if kind == series.Bool {
			return strconv.FormatBool(x != 0)
		}
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []byte:
		return string(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}
