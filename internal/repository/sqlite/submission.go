package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/repository"
)

var _ repository.SubmissionRepository = (*DB)(nil)

const submissionColumns = `id, name, description, url, category_id, category_name, pricing,
	email, logo_url, image_url, status, rejection_reason, slug, created_at, updated_at`

// CreateSubmission inserts s as a new pending submission.
// A duplicate slug comes back as apperror.ErrConflict.
func (db *DB) CreateSubmission(ctx context.Context, s *model.Submission) error {
	if s.ID == "" {
		s.ID = xid.New().String()
	}
	if s.Status == "" {
		s.Status = model.SubmissionPending
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO submissions (id, name, description, url, category_id, category_name,
			pricing, email, logo_url, image_url, status, rejection_reason, slug,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Description, s.URL,
		nullable(s.CategoryID), nullable(s.CategoryName),
		string(s.Pricing), nullable(s.Email),
		nullable(s.LogoURL), nullable(s.ImageURL),
		s.Status, nullable(s.RejectionReason), s.Slug,
		s.CreatedAt, s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperror.Conflictf("submission slug %q is already taken", s.Slug)
	}
	if err != nil {
		return fmt.Errorf("sqlite: creating submission: %w", err)
	}
	return nil
}

// GetSubmission returns one submission by ID.
func (db *DB) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	s, err := scanSubmission(db.conn.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("submission", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting submission %s: %w", id, err)
	}
	return s, nil
}

// ListSubmissions returns submissions newest first. An empty status lists
// every submission.
func (db *DB) ListSubmissions(ctx context.Context, status string) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing submissions: %w", err)
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning submission row: %w", err)
		}
		submissions = append(submissions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating submission rows: %w", err)
	}
	return submissions, nil
}

// UpdateSubmission writes every mutable column of s back to the store and
// bumps updated_at. The slug is immutable once assigned.
func (db *DB) UpdateSubmission(ctx context.Context, s *model.Submission) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE submissions SET
			name = ?, description = ?, url = ?, category_id = ?, category_name = ?,
			pricing = ?, email = ?, logo_url = ?, image_url = ?, status = ?,
			rejection_reason = ?, updated_at = ?
		 WHERE id = ?`,
		s.Name, s.Description, s.URL,
		nullable(s.CategoryID), nullable(s.CategoryName),
		string(s.Pricing), nullable(s.Email),
		nullable(s.LogoURL), nullable(s.ImageURL),
		s.Status, nullable(s.RejectionReason), s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating submission %s: %w", s.ID, err)
	}
	return requireAffected(res, "submission", s.ID)
}

// SubmissionSlugs returns every slug in the submissions table.
func (db *DB) SubmissionSlugs(ctx context.Context) ([]string, error) {
	return db.querySlugs(ctx, `SELECT slug FROM submissions`)
}

func scanSubmission(row scanner) (*model.Submission, error) {
	var (
		s       model.Submission
		pricing string
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.URL,
		&s.CategoryID, &s.CategoryName, &pricing, &s.Email,
		&s.LogoURL, &s.ImageURL, &s.Status, &s.RejectionReason, &s.Slug,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Pricing = model.Pricing(pricing)
	return &s, nil
}
