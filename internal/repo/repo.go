package repo

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"Ventosa/internal/catalog"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresCatalogRepository reads the catalog from a table whose columns
// mirror the spreadsheet header.
type PostgresCatalogRepository struct {
	db    *sql.DB
	table string
}

func NewPostgresCatalogDB(db *sql.DB, table string) (*PostgresCatalogRepository, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid catalog table name %q", table)
	}
	return &PostgresCatalogRepository{db: db, table: table}, nil
}

func (r *PostgresCatalogRepository) LoadCatalog(ctx context.Context) (catalog.Catalog, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+r.table)
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return catalog.Catalog{}, err
	}
	table, err := scanTable(rows, cols)
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("scan %s: %w", r.table, err)
	}
	return catalog.FromTable(table), nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanTable renders every cell as text; NULL becomes the empty string.
func scanTable(rows rowScanner, cols []string) ([][]string, error) {
	table := [][]string{cols}
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		line := make([]string, len(cols))
		for i, c := range cells {
			if c.Valid {
				line[i] = c.String
			}
		}
		table = append(table, line)
	}
	return table, rows.Err()
}

// OpenDB opens the Postgres pool and retries the first ping with exponential
// backoff.
func OpenDB(ctx context.Context, connStr string) (*sql.DB, error) {
	if !strings.Contains(connStr, "sslmode=") {
		if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
			sep := "?"
			if strings.Contains(connStr, "?") {
				sep = "&"
			}
			connStr = connStr + sep + "sslmode=require"
		} else {
			connStr = connStr + " sslmode=require"
		}
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("configure database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	err = backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("database not responding: %w", err)
	}
	return db, nil
}
