package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	// Drivers register themselves with database/sql under "postgres" and "sqlite".
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/logger"
	"github.com/filmdb/filmdb/internal/pathutil"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultQuery selects films in the "simple" column layout.
const DefaultQuery = "SELECT id, title, genres, year, director, rating FROM films"

// Error types for the database source
var (
	ErrMissingDSN        = errors.New("dsn is required for database source")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// DatabaseReader streams catalog rows from a SQL query.
// The first call to Next returns the column names.
type DatabaseReader struct {
	db      *sql.DB
	rows    *sql.Rows
	cancel  context.CancelFunc
	columns []string
	header  bool
}

// NormalizeDriver maps driver aliases to registered database/sql names.
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "postgresql", "pq":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func openDatabase(ctx context.Context, cfg Config) (Reader, error) {
	return OpenDatabase(ctx, cfg)
}

// OpenDatabase connects, retrying transient failures, and runs cfg.Query.
func OpenDatabase(ctx context.Context, cfg Config) (*DatabaseReader, error) {
	driver, err := NormalizeDriver(cfg.Driver)
	if err != nil {
		return nil, errhandling.NewValidationError("invalid database source", err)
	}
	if cfg.DSN == "" {
		return nil, errhandling.NewValidationError("invalid database source", ErrMissingDSN)
	}

	timeout := cfg.timeoutOrDefault()
	query, err := cfg.resolveQuery()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, errhandling.NewValidationError("cannot open database", err)
	}

	log := logger.WithSource(KindDatabase, driver)
	executor := errhandling.NewRetryExecutor(cfg.Retry)
	executor.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Info("retrying database connect",
			"attempt", attempt,
			"delay", delay,
			"error", err.Error(),
		)
	}
	err = executor.Execute(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if pingErr := db.PingContext(pingCtx); pingErr != nil {
			log.Warn("database ping failed", "error", pingErr.Error())
			return classifyDatabaseError("connect", pingErr)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	info := executor.GetRetryInfo()
	log.Debug("database connected",
		"attempts", info.TotalAttempts,
		"duration", info.TotalDuration,
	)

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	rows, err := db.QueryContext(queryCtx, query)
	if err != nil {
		cancel()
		_ = db.Close()
		return nil, classifyDatabaseError("select", err)
	}

	columns, err := rows.Columns()
	if err != nil {
		cancel()
		_ = rows.Close()
		_ = db.Close()
		return nil, classifyDatabaseError("select", err)
	}

	return &DatabaseReader{
		db:      db,
		rows:    rows,
		cancel:  cancel,
		columns: columns,
		header:  true,
	}, nil
}

// Next returns the column names first, then one row per call, then io.EOF.
// NULL cells become empty strings.
func (d *DatabaseReader) Next() ([]string, error) {
	if d.header {
		d.header = false
		return append([]string(nil), d.columns...), nil
	}

	if !d.rows.Next() {
		if err := d.rows.Err(); err != nil {
			return nil, classifyDatabaseError("select", err)
		}
		return nil, io.EOF
	}

	cells := make([]sql.NullString, len(d.columns))
	dest := make([]interface{}, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}
	if err := d.rows.Scan(dest...); err != nil {
		return nil, errhandling.NewParseError("cannot scan database row", err)
	}

	fields := make([]string, len(cells))
	for i, c := range cells {
		if c.Valid {
			fields[i] = c.String
		}
	}
	return fields, nil
}

// Close releases the result set and the connection pool.
func (d *DatabaseReader) Close() error {
	defer d.cancel()
	rowsErr := d.rows.Close()
	dbErr := d.db.Close()
	return errors.Join(rowsErr, dbErr)
}

// classifyDatabaseError maps driver failures onto errhandling categories.
// Timeouts and connection problems are retryable; query errors are not.
func classifyDatabaseError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errhandling.NewDatabaseError(operation+" timed out", err)
	}
	classified := errhandling.ClassifyError(err)
	if classified.Category == errhandling.CategoryDatabase {
		return errhandling.NewDatabaseError(operation+" failed", err)
	}
	if operation == "connect" && isConnectionError(err) {
		return errhandling.NewDatabaseError("connect failed", err)
	}
	return &errhandling.ClassifiedError{
		Category:    errhandling.CategoryDatabase,
		Retryable:   false,
		Message:     operation + " failed",
		OriginalErr: err,
	}
}

// isConnectionError recognizes driver messages for refused or dropped connections.
func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"connection refused", "connection reset", "broken pipe", "no such host", "too many connections", "the database system is starting up"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// resolveQuery returns Query, the contents of QueryFile, or DefaultQuery.
func (c Config) resolveQuery() (string, error) {
	if strings.TrimSpace(c.Query) != "" {
		return c.Query, nil
	}
	if c.QueryFile == "" {
		return DefaultQuery, nil
	}

	if err := pathutil.CheckContained(c.QueryFile); err != nil {
		return "", errhandling.NewValidationError("invalid database query file", err)
	}
	content, err := os.ReadFile(c.QueryFile)
	if err != nil {
		return "", errhandling.NewIOError(fmt.Sprintf("cannot read query file %q", c.QueryFile), err)
	}
	query := strings.TrimSpace(string(content))
	if query == "" {
		return "", errhandling.NewValidationError(fmt.Sprintf("query file %q is empty", c.QueryFile), nil)
	}
	return query, nil
}

func (c Config) timeoutOrDefault() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}
