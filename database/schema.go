package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the necessary database tables if they don't exist
func InitSchema(db *sql.DB) error {
	log.Info("Initializing caseflow database schema...")

	casesTableSQL := `
	CREATE TABLE IF NOT EXISTS cases(
		id CHAR(36) NOT NULL,
		case_number VARCHAR(64) NOT NULL,
		applicant VARCHAR(255) NOT NULL,
		address VARCHAR(512) NOT NULL,
		latitude FLOAT NOT NULL,
		longitude FLOAT NOT NULL,
		form_type ENUM('RESIDENCE', 'OFFICE', 'BUSINESS') NOT NULL,
		contact_email VARCHAR(255),
		status VARCHAR(32) NOT NULL DEFAULT 'ASSIGNED',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE INDEX case_number_index (case_number),
		INDEX status_index (status)
	)`

	if _, err := db.Exec(casesTableSQL); err != nil {
		return fmt.Errorf("failed to create cases table: %w", err)
	}
	log.Info("Cases table created/verified")

	reportsTableSQL := `
	CREATE TABLE IF NOT EXISTS reports(
		seq INT NOT NULL AUTO_INCREMENT,
		ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		case_id CHAR(36) NOT NULL,
		agent_id VARCHAR(255) NOT NULL,
		form_type ENUM('RESIDENCE', 'OFFICE', 'BUSINESS') NOT NULL,
		final_status VARCHAR(32) NOT NULL,
		fields JSON NOT NULL,
		PRIMARY KEY (seq),
		INDEX case_id_index (case_id),
		INDEX agent_id_index (agent_id)
	)`

	if _, err := db.Exec(reportsTableSQL); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}
	log.Info("Reports table created/verified")

	evidenceTableSQL := `
	CREATE TABLE IF NOT EXISTS evidence_images(
		id CHAR(36) NOT NULL,
		case_id CHAR(36) NOT NULL,
		image LONGBLOB NOT NULL,
		latitude FLOAT NOT NULL,
		longitude FLOAT NOT NULL,
		s2_cell BIGINT UNSIGNED NOT NULL,
		taken_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX case_id_index (case_id),
		INDEX s2_cell_index (s2_cell)
	)`

	if _, err := db.Exec(evidenceTableSQL); err != nil {
		return fmt.Errorf("failed to create evidence_images table: %w", err)
	}
	log.Info("Evidence_images table created/verified")

	addFKConstraints(db)

	log.Info("Caseflow database schema initialization completed")
	return nil
}

// addFKConstraints adds foreign key constraints for referential integrity.
// Errors are logged and ignored so re-runs against an initialized schema are
// harmless.
func addFKConstraints(db *sql.DB) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM information_schema.TABLE_CONSTRAINTS
		WHERE CONSTRAINT_SCHEMA = DATABASE()
		AND CONSTRAINT_NAME = 'fk_reports_case_id'
	`).Scan(&count)
	if err != nil {
		log.Warnf("Could not check for existing foreign key constraints: %v", err)
		return
	}

	if count == 0 {
		_, err := db.Exec(`
			ALTER TABLE reports
			ADD CONSTRAINT fk_reports_case_id
			FOREIGN KEY (case_id) REFERENCES cases(id) ON DELETE CASCADE
		`)
		if err != nil {
			log.Warnf("Could not add foreign key constraint for reports: %v", err)
		} else {
			log.Info("Added foreign key constraint for reports")
		}
	}

	err = db.QueryRow(`
		SELECT COUNT(*)
		FROM information_schema.TABLE_CONSTRAINTS
		WHERE CONSTRAINT_SCHEMA = DATABASE()
		AND CONSTRAINT_NAME = 'fk_evidence_images_case_id'
	`).Scan(&count)
	if err != nil {
		log.Warnf("Could not check for existing evidence foreign key constraint: %v", err)
		return
	}

	if count == 0 {
		_, err := db.Exec(`
			ALTER TABLE evidence_images
			ADD CONSTRAINT fk_evidence_images_case_id
			FOREIGN KEY (case_id) REFERENCES cases(id) ON DELETE CASCADE
		`)
		if err != nil {
			log.Warnf("Could not add foreign key constraint for evidence_images: %v", err)
		} else {
			log.Info("Added foreign key constraint for evidence_images")
		}
	}
}
