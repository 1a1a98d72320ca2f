package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"regdesk/internal/registration/models"
	"regdesk/pkg/requestcontext"
)

// Schema creates the append-only submissions table. Rows are never updated
// or deleted; id preserves insertion order.
const Schema = `
CREATE TABLE IF NOT EXISTS registration_submissions (
	id           BIGSERIAL PRIMARY KEY,
	device_id    TEXT        NOT NULL,
	name         TEXT        NOT NULL,
	email        TEXT        NOT NULL,
	phone        TEXT        NOT NULL,
	bits_id      TEXT        NOT NULL,
	hostel       TEXT        NOT NULL,
	size         TEXT        NOT NULL,
	terms        BOOLEAN     NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS registration_submissions_device_idx
	ON registration_submissions (device_id, id);
`

// Postgres persists ledger entries as rows keyed by device.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema applies Schema. It is safe to run on every start.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (s *Postgres) Load(ctx context.Context, deviceID string) (models.Ledger, error) {
	query := `
		SELECT name, email, phone, bits_id, hostel, size, terms
		FROM registration_submissions
		WHERE device_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	defer rows.Close()

	entries := models.Ledger{}
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(&sub.Name, &sub.Email, &sub.Phone, &sub.BitsID, &sub.Hostel, &sub.Size, &sub.Terms); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return entries, nil
}

func (s *Postgres) Append(ctx context.Context, deviceID string, submission models.Submission) error {
	query := `
		INSERT INTO registration_submissions
			(device_id, name, email, phone, bits_id, hostel, size, terms, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		deviceID,
		submission.Name,
		submission.Email,
		submission.Phone,
		submission.BitsID,
		submission.Hostel,
		submission.Size,
		submission.Terms,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	return nil
}
