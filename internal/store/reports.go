package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Report lifecycle states.
const (
	ReportStatusPending   = "pending"
	ReportStatusReviewing = "reviewing"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

type UserReport struct {
	ID              uuid.UUID  `json:"id"`
	ReporterID      uuid.UUID  `json:"reporter_id"`
	ReportedID      uuid.UUID  `json:"reported_id"`
	ReportType      string     `json:"report_type"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	ReviewedBy      *uuid.UUID `json:"reviewed_by,omitempty"`
	ResolutionNotes string     `json:"resolution_notes"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CreateUserReport files a report against another user. Self-reports are
// rejected before any write.
func (s *Store) CreateUserReport(ctx context.Context, reporterID, reportedID uuid.UUID, reportType, description string) (*UserReport, error) {
	if reporterID == reportedID {
		return nil, ErrSelfAction
	}
	r := UserReport{
		ID:          uuid.New(),
		ReporterID:  reporterID,
		ReportedID:  reportedID,
		ReportType:  reportType,
		Description: description,
		Status:      ReportStatusPending,
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO user_reports (id, reporter_id, reported_id, report_type, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		r.ID, r.ReporterID, r.ReportedID, r.ReportType, r.Description)
	if err := row.Scan(&r.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return &r, nil
}

func (s *Store) GetUserReport(ctx context.Context, id uuid.UUID) (*UserReport, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, reporter_id, reported_id, report_type, description, status,
		       reviewed_by, resolution_notes, created_at
		FROM user_reports WHERE id = $1`, id)

	var r UserReport
	err := row.Scan(&r.ID, &r.ReporterID, &r.ReportedID, &r.ReportType, &r.Description,
		&r.Status, &r.ReviewedBy, &r.ResolutionNotes, &r.CreatedAt)
	if noRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReportsByReporter returns reports filed by a user, newest first.
func (s *Store) ListReportsByReporter(ctx context.Context, reporterID uuid.UUID, limit int) ([]UserReport, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, reporter_id, reported_id, report_type, description, status,
		       reviewed_by, resolution_notes, created_at
		FROM user_reports
		WHERE reporter_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		reporterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []UserReport
	for rows.Next() {
		var r UserReport
		if err := rows.Scan(&r.ID, &r.ReporterID, &r.ReportedID, &r.ReportType, &r.Description,
			&r.Status, &r.ReviewedBy, &r.ResolutionNotes, &r.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// ResolveReport moves a pending report to a terminal status.
func (s *Store) ResolveReport(ctx context.Context, id, reviewerID uuid.UUID, status, notes string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_reports
		SET status = $1, reviewed_by = $2, resolution_notes = $3, updated_at = now()
		WHERE id = $4`,
		status, reviewerID, notes, id)
	if err != nil {
		return fmt.Errorf("resolve report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
