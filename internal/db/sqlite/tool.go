package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/medagent/internal/domain"
	"github.com/kailas-cloud/medagent/internal/metrics"
)

// Config binds a Tool to its backing table.
type Config struct {
	Domain domain.Domain
	Path   string
	Table  string
	// QueryTimeout bounds a single Execute. Zero means no bound.
	QueryTimeout time.Duration
	// MaxRows caps the rows marshalled into a result. Zero means no cap.
	MaxRows int
	Logger  *zap.Logger
}

// Tool executes queries against one domain table.
type Tool struct {
	db           *sql.DB
	domain       domain.Domain
	table        string
	path         string
	queryTimeout time.Duration
	maxRows      int
	logger       *zap.Logger
}

// Open creates a Tool over an existing sqlite file. The file is opened read-only.
func Open(cfg Config) (*Tool, error) {
	if !cfg.Domain.Known() {
		return nil, fmt.Errorf("open %s: %w", cfg.Domain, domain.ErrUnknownDomain)
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("open %s: table is required", cfg.Domain)
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("open %s dataset %s: %w", cfg.Domain, cfg.Path, err)
	}

	db, err := sql.Open("sqlite", dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Tool{
		db:           db,
		domain:       cfg.Domain,
		table:        cfg.Table,
		path:         cfg.Path,
		queryTimeout: cfg.QueryTimeout,
		maxRows:      cfg.MaxRows,
		logger:       logger.With(zap.String("domain", cfg.Domain.String())),
	}, nil
}

// dsn builds a read-only, query-only DSN for the modernc driver.
func dsn(path string) string {
	q := url.Values{}
	q.Set("mode", "ro")
	q.Add("_pragma", "query_only(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

// Domain returns the domain the tool is bound to.
func (t *Tool) Domain() domain.Domain { return t.domain }

// Table returns the backing table name.
func (t *Tool) Table() string { return t.table }

// Close closes the connection pool.
func (t *Tool) Close() error {
	return t.db.Close()
}

// Ping checks that the backing file is reachable.
func (t *Tool) Ping(ctx context.Context) error {
	if err := t.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", t.domain, err)
	}
	return nil
}

// Stats exposes pool statistics (open and in-use connections).
func (t *Tool) Stats() sql.DBStats {
	return t.db.Stats()
}

// Execute runs a query against the bound table and marshals the rows.
// Errors are *domain.ExecutionError values.
func (t *Tool) Execute(ctx context.Context, query string) (result domain.TabularResult, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.QueryExecutionDuration.WithLabelValues(t.domain.String(), status).Observe(time.Since(start).Seconds())
	}()

	q := Normalize(query)
	if err := CheckReadOnly(q); err != nil {
		return domain.TabularResult{}, domain.NewExecutionError(t.domain, err)
	}

	if t.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.queryTimeout)
		defer cancel()
	}

	conn, err := t.db.Conn(ctx)
	if err != nil {
		return domain.TabularResult{}, domain.NewExecutionError(t.domain, fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return domain.TabularResult{}, domain.NewExecutionError(t.domain, err)
	}
	defer rows.Close()

	result, err = t.scan(rows)
	if err != nil {
		return domain.TabularResult{}, domain.NewExecutionError(t.domain, err)
	}

	t.logger.Debug("Query executed",
		zap.Int("rows", result.Len()),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (t *Tool) scan(rows *sql.Rows) (domain.TabularResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return domain.TabularResult{}, fmt.Errorf("read columns: %w", err)
	}

	cols = uniqueColumns(cols)
	result := domain.TabularResult{Columns: cols, Rows: []domain.Row{}}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if t.maxRows > 0 && len(result.Rows) >= t.maxRows {
			result.Truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.TabularResult{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(domain.Row, len(cols))
		for i, c := range cols {
			row[c] = scalar(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.TabularResult{}, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// uniqueColumns suffixes repeated column names: age, age becomes age, age_2.
func uniqueColumns(cols []string) []string {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	out := make([]string, len(cols))
	used := make(map[string]bool, len(cols))
	for i, c := range cols {
		name := c
		for n := 2; used[name] || (name != c && seen[name]); n++ {
			name = fmt.Sprintf("%s_%d", c, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// scalar converts driver values to plain scalars ([]byte → string).
func scalar(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Schema introspects the bound table's columns and declared types.
func (t *Tool) Schema(ctx context.Context) (domain.Schema, error) {
	conn, err := t.db.Conn(ctx)
	if err != nil {
		return domain.Schema{}, domain.NewExecutionError(t.domain, fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?)", t.table)
	if err != nil {
		return domain.Schema{}, domain.NewExecutionError(t.domain, fmt.Errorf("table info: %w", err))
	}
	defer rows.Close()

	schema := domain.Schema{Table: t.table}
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return domain.Schema{}, domain.NewExecutionError(t.domain, fmt.Errorf("scan column: %w", err))
		}
		schema.Columns = append(schema.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return domain.Schema{}, domain.NewExecutionError(t.domain, fmt.Errorf("iterate columns: %w", err))
	}
	if len(schema.Columns) == 0 {
		return domain.Schema{}, domain.NewExecutionError(t.domain,
			fmt.Errorf("table %s: %w", t.table, errTableNotFound))
	}
	return schema, nil
}

var errTableNotFound = errors.New("table not found")
