package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/biovault/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresConfig is decoded from the catalog.postgres config section.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type PostgresDB struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresDB(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*PostgresDB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := &PostgresDB{db: db, logger: logger.Named("postgres")}

	if cfg.AutoMigrate {
		if err := p.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
	}

	return p, nil
}

// Migrate applies the embedded schema migrations.
func (p *PostgresDB) Migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	driver, err := postgres.WithInstance(p.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			p.logger.Warn("failed to close migrator", zap.NamedError("source", srcErr), zap.NamedError("db", dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	p.logger.Info("schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) InsertFile(ctx context.Context, rec models.FileRecord) (models.FileRecord, error) {
	query := `
        INSERT INTO user_files (user_id, filename, size_display, local_path, upload_date)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, upload_date
    `
	err := p.db.QueryRowContext(ctx, query,
		rec.UserID,
		rec.Filename,
		rec.SizeDisplay,
		rec.StoragePath,
		rec.UploadedAt,
	).Scan(&rec.ID, &rec.UploadedAt)
	if err != nil {
		return models.FileRecord{}, err
	}
	rec.UploadedAt = rec.UploadedAt.UTC()
	return rec, nil
}

func (p *PostgresDB) ListFiles(ctx context.Context, userID string) ([]models.FileRecord, error) {
	query := `
        SELECT id, user_id, filename, size_display, local_path, upload_date
        FROM user_files
        WHERE user_id = $1
        ORDER BY upload_date DESC, id DESC
    `
	return p.queryFiles(ctx, query, userID)
}

func (p *PostgresDB) FindFiles(ctx context.Context, userID, filename string) ([]models.FileRecord, error) {
	query := `
        SELECT id, user_id, filename, size_display, local_path, upload_date
        FROM user_files
        WHERE user_id = $1 AND filename = $2
        ORDER BY upload_date DESC, id DESC
    `
	return p.queryFiles(ctx, query, userID, filename)
}

func (p *PostgresDB) queryFiles(ctx context.Context, query string, args ...any) ([]models.FileRecord, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.FileRecord
	for rows.Next() {
		var f models.FileRecord
		if err := rows.Scan(&f.ID, &f.UserID, &f.Filename, &f.SizeDisplay, &f.StoragePath, &f.UploadedAt); err != nil {
			return nil, err
		}
		f.UploadedAt = f.UploadedAt.UTC()
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFiles removes the given rows of userID and returns how many existed.
func (p *PostgresDB) DeleteFiles(ctx context.Context, userID string, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `
        DELETE FROM user_files
        WHERE user_id = $1 AND id = ANY($2)
    `
	result, err := p.db.ExecContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

func (p *PostgresDB) InsertActivity(ctx context.Context, entry models.ActivityEntry) error {
	query := `
        INSERT INTO activity_logs (user_id, action, details, timestamp)
        VALUES ($1, $2, $3, $4)
    `
	_, err := p.db.ExecContext(ctx, query, entry.UserID, string(entry.Action), entry.Details, entry.Timestamp)
	return err
}

func (p *PostgresDB) ListActivity(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	query := `
        SELECT id, user_id, action, details, timestamp
        FROM activity_logs
        WHERE user_id = $1
        ORDER BY timestamp DESC, id DESC
        LIMIT $2
    `
	rows, err := p.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		var action string
		if err := rows.Scan(&e.ID, &e.UserID, &action, &e.Details, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Action = models.Action(action)
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
