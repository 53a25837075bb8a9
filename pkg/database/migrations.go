package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrChecksumMismatch is returned when an applied migration file was edited
var ErrChecksumMismatch = errors.New("migration checksum mismatch")

// Migration is one numbered SQL file
type Migration struct {
	Version  int
	Name     string
	SQL      string
	Checksum string
}

// Label renders the migration as it is named on disk
func (m Migration) Label() string {
	return fmt.Sprintf("%03d_%s", m.Version, m.Name)
}

// MigrationStatus reports whether a known migration has been applied
type MigrationStatus struct {
	Migration
	AppliedAt *time.Time
}

type appliedMigration struct {
	checksum  string
	appliedAt time.Time
}

// Migrator applies numbered SQL files in order, once each
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// RunMigrations applies every pending migration of fsys
func (m *Migrator) RunMigrations(fsys fs.FS) error {
	_, err := m.Apply(context.Background(), fsys)
	return err
}

// Apply applies pending migrations and returns those it ran. Applied
// migrations whose file content changed abort the run.
func (m *Migrator) Apply(ctx context.Context, fsys fs.FS) ([]Migration, error) {
	known, applied, err := m.load(ctx, fsys)
	if err != nil {
		return nil, err
	}

	var ran []Migration
	for _, mig := range known {
		if prev, ok := applied[mig.Version]; ok {
			if prev.checksum != mig.Checksum {
				return ran, fmt.Errorf("%w: %s", ErrChecksumMismatch, mig.Label())
			}
			continue
		}

		m.logger.Info("Applying migration", zap.String("migration", mig.Label()))
		if err := m.apply(ctx, mig); err != nil {
			return ran, fmt.Errorf("failed to apply migration %s: %w", mig.Label(), err)
		}
		ran = append(ran, mig)
	}

	m.logger.Info("Database migrations completed",
		zap.Int("known", len(known)),
		zap.Int("applied", len(ran)))
	return ran, nil
}

// Status lists every known migration with its application time, if any
func (m *Migrator) Status(ctx context.Context, fsys fs.FS) ([]MigrationStatus, error) {
	known, applied, err := m.load(ctx, fsys)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, len(known))
	for i, mig := range known {
		out[i] = MigrationStatus{Migration: mig}
		if prev, ok := applied[mig.Version]; ok {
			at := prev.appliedAt
			out[i].AppliedAt = &at
		}
	}
	return out, nil
}

func (m *Migrator) load(ctx context.Context, fsys fs.FS) ([]Migration, map[int]appliedMigration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	known, err := LoadMigrations(fsys)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	return known, applied, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			checksum   TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func (m *Migrator) applied(ctx context.Context) (map[int]appliedMigration, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version, checksum, applied_at FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]appliedMigration)
	for rows.Next() {
		var (
			version int
			a       appliedMigration
		)
		if err := rows.Scan(&version, &a.checksum, &a.appliedAt); err != nil {
			return nil, err
		}
		out[version] = a
	}
	return out, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, checksum) VALUES (?, ?, ?)",
		mig.Version, mig.Name, mig.Checksum,
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

// LoadMigrations reads every *.sql file of fsys, ordered by version.
// Files are named "<version>_<name>.sql".
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	var out []Migration
	seen := make(map[int]string)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".sql") {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", p, err)
		}

		filename := path.Base(p)
		prefix, rest, _ := strings.Cut(strings.TrimSuffix(filename, ".sql"), "_")

		var version int
		if _, err := fmt.Sscanf(prefix, "%d", &version); err != nil || version <= 0 {
			return fmt.Errorf("invalid migration filename format: %s", filename)
		}
		if other, dup := seen[version]; dup {
			return fmt.Errorf("duplicate migration version %d: %s and %s", version, other, filename)
		}
		seen[version] = filename

		sum := sha256.Sum256(content)
		out = append(out, Migration{
			Version:  version,
			Name:     rest,
			SQL:      string(content),
			Checksum: hex.EncodeToString(sum[:]),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
