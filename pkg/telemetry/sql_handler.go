package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/go-sql-driver/mysql" // mysql driver for Dolt and MySQL telemetry stores
)

// SQLHandler is a slog.Handler that also writes error logs to a SQL table
type SQLHandler struct {
	next      slog.Handler
	db        *sql.DB
	tableName string
	attrs     []slog.Attr
}

// OpenSQL opens a database for the SQL handler. driverName defaults to mysql.
func OpenSQL(driverName, dsn string) (*sql.DB, error) {
	if driverName == "" {
		driverName = "mysql"
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry database: %w", err)
	}
	return db, nil
}

// NewSQLHandler creates a new SQLHandler using an existing DB connection
func NewSQLHandler(next slog.Handler, db *sql.DB) (*SQLHandler, error) {
	h := &SQLHandler{
		next:      next,
		db:        db,
		tableName: "graphconf_errors",
	}

	if err := h.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure telemetry table: %w", err)
	}

	return h, nil
}

func (h *SQLHandler) ensureTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			timestamp TIMESTAMP,
			level VARCHAR(10),
			message TEXT,
			query_id VARCHAR(36),
			request_source VARCHAR(64),
			source_file VARCHAR(255),
			line_number INT,
			attributes JSON
		)
	`, h.tableName)

	_, err := h.db.Exec(query)
	return err
}

// Enabled implements slog.Handler
func (h *SQLHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *SQLHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level < slog.LevelError {
		return nil
	}

	rec := newLogRecord(ctx, r, h.attrs)
	query := fmt.Sprintf(`
		INSERT INTO %s (id, timestamp, level, message, query_id, request_source, source_file, line_number, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.tableName)

	_, err := h.db.ExecContext(context.WithoutCancel(ctx), query,
		rec.ID,
		rec.Timestamp,
		rec.Level,
		rec.Message,
		rec.QueryID,
		rec.RequestSource,
		rec.SourceFile,
		rec.LineNumber,
		rec.Attributes,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write log to SQL: %v\n", err)
	}

	// database errors never block the logging chain
	return nil
}

// WithAttrs implements slog.Handler
func (h *SQLHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SQLHandler{
		next:      h.next.WithAttrs(attrs),
		db:        h.db,
		tableName: h.tableName,
		attrs:     append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler
func (h *SQLHandler) WithGroup(name string) slog.Handler {
	return &SQLHandler{
		next:      h.next.WithGroup(name),
		db:        h.db,
		tableName: h.tableName,
		attrs:     h.attrs,
	}
}
