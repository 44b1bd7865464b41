// Package dataset materializes the CSV datasets into sqlite tables.
package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

// Column affinities assigned by inference.
const (
	typeInteger = "INTEGER"
	typeReal    = "REAL"
	typeText    = "TEXT"
)

var errEmptyCSV = errors.New("csv has no header")

// Source maps one CSV file to one table in one database file.
type Source struct {
	CSVPath string
	DBPath  string
	Table   string
}

// Stats summarizes one load.
type Stats struct {
	Table   string
	Rows    int
	Columns []string
	Types   []string
}

// Loader writes CSV sources into sqlite, replacing existing tables.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// Load reads src.CSVPath and replaces src.Table in src.DBPath with its contents.
func (l *Loader) Load(ctx context.Context, src Source) (Stats, error) {
	header, records, err := readCSV(src.CSVPath)
	if err != nil {
		return Stats{}, fmt.Errorf("reading %s: %w", src.CSVPath, err)
	}
	types := inferTypes(len(header), records)

	if err := os.MkdirAll(filepath.Dir(src.DBPath), 0o755); err != nil {
		return Stats{}, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", src.DBPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return Stats{}, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := writeTable(ctx, db, src.Table, header, types, records); err != nil {
		return Stats{}, fmt.Errorf("writing %s: %w", src.Table, err)
	}

	l.logger.Info("Dataset loaded",
		zap.String("table", src.Table),
		zap.String("db", src.DBPath),
		zap.Int("rows", len(records)),
		zap.Int("columns", len(header)),
	)
	return Stats{Table: src.Table, Rows: len(records), Columns: header, Types: types}, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errEmptyCSV
	}
	if err != nil {
		return nil, nil, err
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return header, records, nil
}

// inferTypes picks the narrowest affinity that fits every non-empty value in a column.
func inferTypes(n int, records [][]string) []string {
	types := make([]string, n)
	for i := range types {
		types[i] = typeInteger
	}
	for _, rec := range records {
		for i, v := range rec {
			if v == "" || types[i] == typeText {
				continue
			}
			if types[i] == typeInteger {
				if _, err := strconv.ParseInt(v, 10, 64); err == nil {
					continue
				}
				types[i] = typeReal
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				types[i] = typeText
			}
		}
	}
	return types
}

func writeTable(ctx context.Context, db *sql.DB, table string, header, types []string, records [][]string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	cols := make([]string, len(header))
	quoted := make([]string, len(header))
	for i, h := range header {
		quoted[i] = quoteIdent(h)
		cols[i] = quoted[i] + " " + types[i]
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(header))
	for n, rec := range records {
		for i := range args {
			args[i] = convert(rec[i], types[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", n+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func convert(v, typ string) any {
	if v == "" {
		return nil
	}
	switch typ {
	case typeInteger:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case typeReal:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return v
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
