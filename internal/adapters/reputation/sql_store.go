package reputation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect captures the per-database statements of the SQL store
type Dialect struct {
	Driver      string
	createTable string
	insert      string
	selectOne   string
}

// SQLite, MySQL and Postgres dialects. Every insert ignores duplicates.
var (
	SQLite = Dialect{
		Driver:      "sqlite3",
		createTable: `CREATE TABLE IF NOT EXISTS %s (domain TEXT PRIMARY KEY)`,
		insert:      `INSERT OR IGNORE INTO %s (domain) VALUES (?)`,
		selectOne:   `SELECT 1 FROM %s WHERE domain = ?`,
	}
	MySQL = Dialect{
		Driver:      "mysql",
		createTable: `CREATE TABLE IF NOT EXISTS %s (domain VARCHAR(255) NOT NULL PRIMARY KEY)`,
		insert:      `INSERT IGNORE INTO %s (domain) VALUES (?)`,
		selectOne:   `SELECT 1 FROM %s WHERE domain = ?`,
	}
	Postgres = Dialect{
		Driver:      "postgres",
		createTable: `CREATE TABLE IF NOT EXISTS %s (domain TEXT PRIMARY KEY)`,
		insert:      `INSERT INTO %s (domain) VALUES ($1) ON CONFLICT DO NOTHING`,
		selectOne:   `SELECT 1 FROM %s WHERE domain = $1`,
	}
)

// SQLStore is a database/sql implementation of core.ReputationStore
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
	logger  *zap.Logger
}

// NewSQLStore opens the database and creates the domain table if needed
func NewSQLStore(ctx context.Context, dialect Dialect, dsn, table string, logger *zap.Logger) (*SQLStore, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid reputation table name %q", table)
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", dialect.Driver, err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(dialect.createTable, table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLStore{
		db:      db,
		dialect: dialect,
		table:   table,
		logger:  logger,
	}, nil
}

// Contains reports whether a domain is blocklisted
func (s *SQLStore) Contains(ctx context.Context, domain string) bool {
	var one int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(s.dialect.selectOne, s.table),
		strings.ToLower(strings.TrimSpace(domain))).Scan(&one)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Reputation lookup failed", zap.Error(err), zap.String("domain", domain))
		}
		return false
	}
	return true
}

// BulkAdd inserts domains in one transaction and returns how many were new
func (s *SQLStore) BulkAdd(ctx context.Context, domains []string) (int, error) {
	normalized := Normalize(domains)
	if len(normalized) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(s.dialect.insert, s.table))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, d := range normalized {
		res, err := stmt.ExecContext(ctx, d)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", d, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit domains: %w", err)
	}
	return inserted, nil
}

// Size returns the number of distinct entries
func (s *SQLStore) Size(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count domains: %w", err)
	}
	return n, nil
}

// Seed inserts domains only when the table is empty
func (s *SQLStore) Seed(ctx context.Context, domains []string) error {
	size, err := s.Size(ctx)
	if err != nil {
		return err
	}
	if size > 0 {
		return nil
	}
	inserted, err := s.BulkAdd(ctx, domains)
	if err != nil {
		return err
	}
	s.logger.Info("Seeded reputation store", zap.Int("inserted", inserted))
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
