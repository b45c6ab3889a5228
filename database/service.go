package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"caseflow/models"
	"caseflow/validation"

	"github.com/apex/log"
)

// ReportService handles all case, report and evidence database operations
type ReportService struct {
	db *sql.DB
}

// NewReportService creates a new report service instance
func NewReportService(db *sql.DB) *ReportService {
	return &ReportService{db: db}
}

// GetCase retrieves a verification case by id.
func (s *ReportService) GetCase(ctx context.Context, caseID string) (*models.Case, error) {
	var (
		c            models.Case
		contactEmail sql.NullString
		formType     string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT case_number, applicant, address, latitude, longitude,
		       form_type, contact_email, status, created_at, updated_at
		FROM cases WHERE id = ?`, caseID).
		Scan(&c.CaseNumber, &c.Applicant, &c.Address, &c.Latitude, &c.Longitude,
			&formType, &contactEmail, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("case %s not found", caseID)
	}
	if err != nil {
		log.Errorf("Failed to query case %s: %v", caseID, err)
		return nil, fmt.Errorf("failed to query case: %w", err)
	}
	c.ID = caseID
	c.FormType = validation.FormType(formType)
	c.ContactEmail = contactEmail.String
	return &c, nil
}

// CountEvidence returns the number of evidence images stored for a case.
func (s *ReportService) CountEvidence(ctx context.Context, caseID string) (int, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evidence_images WHERE case_id = ?`, caseID).Scan(&cnt)
	if err != nil {
		log.Errorf("Failed to count evidence for case %s: %v", caseID, err)
		return 0, fmt.Errorf("failed to count evidence: %w", err)
	}
	return cnt, nil
}

// SaveEvidence stores a captured evidence image.
func (s *ReportService) SaveEvidence(ctx context.Context, img *models.EvidenceImage) error {
	log.Infof("Saving evidence %s for case %s at %f,%f", img.ID, img.CaseID, img.Latitude, img.Longitude)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO evidence_images (id, case_id, image, latitude, longitude, s2_cell, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.ID, img.CaseID, img.Image, img.Latitude, img.Longitude, img.S2Cell, img.TakenAt)
	if err != nil {
		log.Errorf("Failed to save evidence for case %s: %v", img.CaseID, err)
		return fmt.Errorf("failed to save evidence: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get status of evidence insert: %w", err)
	}
	if rows != 1 {
		return fmt.Errorf("expected to affect 1 row, affected %d", rows)
	}
	return nil
}

// DeleteEvidence removes one evidence image; it reports whether the image
// existed.
func (s *ReportService) DeleteEvidence(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM evidence_images WHERE id = ?`, id)
	if err != nil {
		log.Errorf("Failed to delete evidence %s: %v", id, err)
		return false, fmt.Errorf("failed to delete evidence: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get status of evidence delete: %w", err)
	}
	return rows == 1, nil
}

// SubmitReport stores an accepted report and marks its case submitted, in one
// transaction. Validation has already happened by the time this runs.
func (s *ReportService) SubmitReport(ctx context.Context, rep *models.Report) (int64, error) {
	fields, err := json.Marshal(rep.Fields)
	if err != nil {
		return 0, fmt.Errorf("failed to encode report fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("Failed to begin transaction for case %s: %v", rep.CaseID, err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO reports (case_id, agent_id, form_type, final_status, fields)
		VALUES (?, ?, ?, ?, ?)`,
		rep.CaseID, rep.AgentID, string(rep.FormType), rep.FinalStatus, fields)
	if err != nil {
		log.Errorf("Failed to insert report for case %s: %v", rep.CaseID, err)
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE cases SET status = ? WHERE id = ?`,
		models.CaseStatusSubmitted, rep.CaseID); err != nil {
		log.Errorf("Failed to update case %s status: %v", rep.CaseID, err)
		return 0, fmt.Errorf("failed to update case status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		log.Errorf("Failed to commit report for case %s: %v", rep.CaseID, err)
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Infof("Report %d submitted for case %s by agent %s", seq, rep.CaseID, rep.AgentID)
	return seq, nil
}

// GetReport retrieves a stored report with its field values.
func (s *ReportService) GetReport(ctx context.Context, seq int) (*models.Report, error) {
	var (
		rep      models.Report
		formType string
		fields   []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT case_id, agent_id, form_type, final_status, fields, ts
		FROM reports WHERE seq = ?`, seq).
		Scan(&rep.CaseID, &rep.AgentID, &formType, &rep.FinalStatus, &fields, &rep.Timestamp)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %d not found", seq)
	}
	if err != nil {
		log.Errorf("Failed to query report %d: %v", seq, err)
		return nil, fmt.Errorf("failed to query report: %w", err)
	}
	rep.Seq = seq
	rep.FormType = validation.FormType(formType)
	if err := json.Unmarshal(fields, &rep.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode report fields: %w", err)
	}
	return &rep, nil
}

// EvidenceLocations returns the capture coordinates of all evidence inside a
// viewport, for map aggregation.
func (s *ReportService) EvidenceLocations(ctx context.Context, vp *models.ViewPort) ([]models.MapResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT latitude, longitude
		FROM evidence_images
		WHERE latitude > ? AND longitude > ?
		  AND latitude <= ? AND longitude <= ?`,
		vp.LatMin, vp.LonMin, vp.LatMax, vp.LonMax)
	if err != nil {
		log.Errorf("Could not retrieve evidence locations: %v", err)
		return nil, fmt.Errorf("failed to query evidence locations: %w", err)
	}
	defer rows.Close()

	r := make([]models.MapResult, 0, 100)
	for rows.Next() {
		var lat, lon float64
		if err := rows.Scan(&lat, &lon); err != nil {
			log.Errorf("Cannot scan an evidence row: %v", err)
			continue
		}
		r = append(r, models.MapResult{Latitude: lat, Longitude: lon, Count: 1})
	}
	return r, rows.Err()
}
