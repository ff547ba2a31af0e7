package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"regdesk/internal/registration/models"
	"regdesk/pkg/platform/sentinel"
)

// Store persists records in PostgreSQL. The unique index on username_key
// makes INSERT ... ON CONFLICT DO NOTHING the atomic check-and-write.
type Store struct {
	db *sql.DB
}

// Open connects with the lib/pq driver and verifies the connection.
// Migrations are applied separately (see migrations.Up).
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// New wraps an open database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Lookup(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM registrations WHERE username_key = $1)`,
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
	var dob any
	if record.DateOfBirth != nil {
		dob = record.DateOfBirth.String()
	}
	query := `
		INSERT INTO registrations (username, username_key, email, phone, dob, address, skills, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (username_key) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		record.Username,
		record.Key(),
		record.Email,
		record.Phone,
		dob,
		record.Address,
		pq.Array(record.Skills),
		record.RegisteredAt.UTC(),
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
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	records := []*models.Record{}
	for rows.Next() {
		var (
			r   models.Record
			dob sql.NullTime
		)
		if err := rows.Scan(&r.Username, &r.Email, &r.Phone, &dob, &r.Address, pq.Array(&r.Skills), &r.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w: %w", sentinel.ErrUnavailable, err)
		}
		if dob.Valid {
			d := models.DateOf(dob.Time)
			r.DateOfBirth = &d
		}
		r.RegisteredAt = r.RegisteredAt.UTC()
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
