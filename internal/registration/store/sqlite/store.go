// Package sqlite is an embedded, transactional registry backed by
// modernc.org/sqlite. Uniqueness is enforced by a UNIQUE index on the
// lowercased username, so the check and the write are one statement.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"regdesk/internal/platform/migrations"
	"regdesk/internal/registration/models"
	"regdesk/pkg/platform/sentinel"
)

// Store persists records in a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers; SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := migrations.Up(ctx, db, migrations.SQLite, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Lookup(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM registrations WHERE username_key = ?)`,
		models.UsernameKey(username),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup username: %w: %w", sentinel.ErrUnavailable, err)
	}
	return exists, nil
}

func (s *Store) Append(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	skills, err := json.Marshal(record.Skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	var dob sql.NullString
	if record.DateOfBirth != nil {
		dob = sql.NullString{String: record.DateOfBirth.String(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO registrations (username, username_key, email, phone, dob, address, skills, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (username_key) DO NOTHING`,
		record.Username,
		record.Key(),
		record.Email,
		record.Phone,
		dob,
		record.Address,
		string(skills),
		record.RegisteredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w: %w", sentinel.ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert registration: %w: %w", sentinel.ErrUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("append %q: %w", record.Username, sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, email, phone, dob, address, skills, registered_at
		FROM registrations
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	records := []*models.Record{}
	for rows.Next() {
		var (
			r            models.Record
			dob          sql.NullString
			skills       string
			registeredAt string
		)
		if err := rows.Scan(&r.Username, &r.Email, &r.Phone, &dob, &r.Address, &skills, &registeredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w: %w", sentinel.ErrUnavailable, err)
		}
		if dob.Valid {
			d, err := models.ParseDate(dob.String)
			if err != nil {
				return nil, fmt.Errorf("registration %q dob: %w: %w", r.Username, sentinel.ErrCorrupt, err)
			}
			r.DateOfBirth = &d
		}
		if err := json.Unmarshal([]byte(skills), &r.Skills); err != nil {
			return nil, fmt.Errorf("registration %q skills: %w: %w", r.Username, sentinel.ErrCorrupt, err)
		}
		r.RegisteredAt, err = time.Parse(time.RFC3339Nano, registeredAt)
		if err != nil {
			return nil, fmt.Errorf("registration %q registered_at: %w: %w", r.Username, sentinel.ErrCorrupt, err)
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w: %w", sentinel.ErrUnavailable, err)
	}
	return records, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Version returns the applied schema version.
func (s *Store) Version(ctx context.Context) (int64, error) {
	return migrations.Version(ctx, s.db, migrations.SQLite)
}
