package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/godsvagn/godsvagn/internal/models"
)

// Catalog is the transactional package store. It is the sole
// concurrency-control point for ingestion: the unique constraint over
// (version, name, architecture) guarantees at most one committed row
// per natural key under concurrent uploads.
type Catalog struct {
	pool *pgxpool.Pool
}

// New creates a catalog backed by a Postgres connection pool
func New(ctx context.Context, databaseURL string) (*Catalog, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logrus.Debug("catalog database connected")
	return &Catalog{pool: pool}, nil
}

// Close closes the underlying connection pool
func (c *Catalog) Close() {
	c.pool.Close()
}

// Migrate creates the packages schema. Statements are additive and
// idempotent; existing rows are never rewritten.
func (c *Catalog) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS packages (
			name            TEXT NOT NULL,
			version         TEXT NOT NULL,
			architecture    TEXT NOT NULL,
			control         TEXT NOT NULL,
			size            BIGINT NOT NULL,
			filepath        TEXT NOT NULL,
			md5             BYTEA NOT NULL,
			description_md5 BYTEA NOT NULL,
			sha1            BYTEA NOT NULL,
			sha256          BYTEA NOT NULL,
			UNIQUE (version, name, architecture)
		)`,
		`CREATE INDEX IF NOT EXISTS packages_architecture_idx ON packages (architecture)`,
	}

	for _, stmt := range statements {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return models.WrapError(models.ErrStorage, "", fmt.Errorf("migrate: %w", err))
		}
	}
	return nil
}

// Insert persists a new package row. A natural-key collision surfaces
// as a Duplicate error and leaves the store unchanged; every other
// failure is a retryable Storage error.
func (c *Catalog) Insert(ctx context.Context, pkg *models.Package) error {
	query := `
		INSERT INTO packages (name, version, architecture, control, size, filepath, md5, description_md5, sha1, sha256)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := c.pool.Exec(ctx, query,
		pkg.Name,
		pkg.Version,
		pkg.Architecture,
		pkg.Control,
		pkg.Size,
		pkg.Filepath,
		pkg.MD5,
		pkg.DescriptionMD5,
		pkg.SHA1,
		pkg.SHA256,
	)
	if err != nil {
		key := naturalKey(pkg)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrUniqueViolation {
			return models.WrapError(models.ErrDuplicate, key, fmt.Errorf("package already cataloged"))
		}
		return models.WrapError(models.ErrStorage, key, fmt.Errorf("insert package: %w", err))
	}

	logrus.Debugf("cataloged %s", naturalKey(pkg))
	return nil
}

// pgerrUniqueViolation is the Postgres unique_violation SQLSTATE
const pgerrUniqueViolation = "23505"

// List returns every package for an architecture ordered by name then
// version, both ascending. The single statement executes against one
// Postgres snapshot, so a concurrent insert is either fully visible or
// not at all.
func (c *Catalog) List(ctx context.Context, architecture string) ([]models.Package, error) {
	query := `
		SELECT name, version, architecture, control, size, filepath, md5, description_md5, sha1, sha256
		FROM packages
		WHERE architecture = $1
		ORDER BY name ASC, version ASC
	`

	rows, err := c.pool.Query(ctx, query, architecture)
	if err != nil {
		return nil, models.WrapError(models.ErrStorage, "", fmt.Errorf("list packages: %w", err))
	}
	defer rows.Close()

	var packages []models.Package
	for rows.Next() {
		var pkg models.Package
		err := rows.Scan(
			&pkg.Name,
			&pkg.Version,
			&pkg.Architecture,
			&pkg.Control,
			&pkg.Size,
			&pkg.Filepath,
			&pkg.MD5,
			&pkg.DescriptionMD5,
			&pkg.SHA1,
			&pkg.SHA256,
		)
		if err != nil {
			return nil, models.WrapError(models.ErrStorage, "", fmt.Errorf("scan package: %w", err))
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapError(models.ErrStorage, "", fmt.Errorf("iterate packages: %w", err))
	}

	return packages, nil
}

// Architectures returns every architecture with at least one cataloged
// package, sorted
func (c *Catalog) Architectures(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT architecture FROM packages ORDER BY architecture ASC`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, models.WrapError(models.ErrStorage, "", fmt.Errorf("list architectures: %w", err))
	}
	defer rows.Close()

	var arches []string
	for rows.Next() {
		var arch string
		if err := rows.Scan(&arch); err != nil {
			return nil, models.WrapError(models.ErrStorage, "", fmt.Errorf("scan architecture: %w", err))
		}
		arches = append(arches, arch)
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapError(models.ErrStorage, "", fmt.Errorf("iterate architectures: %w", err))
	}

	return arches, nil
}

func naturalKey(pkg *models.Package) string {
	return fmt.Sprintf("%s:%s:%s", pkg.Name, pkg.Version, pkg.Architecture)
}
