package models

import (
	"time"

	"caseflow/validation"
)

// Case is a verification case assigned to a field agent.
type Case struct {
	ID           string              `json:"id"`
	CaseNumber   string              `json:"case_number"`
	Applicant    string              `json:"applicant"`
	Address      string              `json:"address"`
	Latitude     float64             `json:"latitude"`
	Longitude    float64             `json:"longitude"`
	FormType     validation.FormType `json:"form_type"`
	ContactEmail string              `json:"contact_email,omitempty"`
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Case lifecycle statuses.
const (
	CaseStatusAssigned  = "ASSIGNED"
	CaseStatusSubmitted = "SUBMITTED"
)

// Report is a submitted verification report from the reports table.
type Report struct {
	Seq         int            `json:"seq"`
	CaseID      string         `json:"case_id"`
	AgentID     string         `json:"agent_id"`
	FormType    validation.FormType `json:"form_type"`
	FinalStatus string         `json:"final_status"`
	Fields      map[string]any `json:"fields"`
	Timestamp   time.Time      `json:"timestamp"`
}

// EvidenceImage is one geotagged photograph captured for a case.
type EvidenceImage struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	Image     []byte    `json:"image,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	S2Cell    uint64    `json:"-"`
	TakenAt   time.Time `json:"taken_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitReportRequest is the submission payload from the mobile app.
type SubmitReportRequest struct {
	Version  string              `json:"version"` // Must be "2.0"
	CaseID   string              `json:"case_id"`
	FormType validation.FormType `json:"form_type"`
	Fields   map[string]any      `json:"fields"`
}

// SubmitReportResponse acknowledges an accepted report.
type SubmitReportResponse struct {
	Seq int64 `json:"seq"`
}

// ValidationFailureResponse is returned when a submission fails validation.
type ValidationFailureResponse struct {
	Message       string   `json:"message"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// UploadEvidenceRequest carries one captured photo. Latitude/longitude may be
// omitted; the server then falls back to the JPEG's EXIF geotag.
type UploadEvidenceRequest struct {
	Version   string   `json:"version"` // Must be "2.0"
	CaseID    string   `json:"case_id"`
	Image     []byte   `json:"image"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	TakenAt   string   `json:"taken_at,omitempty"` // RFC3339
}

// UploadEvidenceResponse acknowledges a stored evidence image.
type UploadEvidenceResponse struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int     `json:"count"`
}

// DeleteEvidenceRequest removes an evidence image by id.
type DeleteEvidenceRequest struct {
	Version string `json:"version"` // Must be "2.0"
	ID      string `json:"id"`
}

// EvidenceCountResponse reports the current photo count for a case.
type EvidenceCountResponse struct {
	CaseID string `json:"case_id"`
	Count  int    `json:"count"`
}

// ViewPort is a lat/lon bounding box for map queries.
type ViewPort struct {
	LatMin float64 `json:"latmin"`
	LonMin float64 `json:"lonmin"`
	LatMax float64 `json:"latmax"`
	LonMax float64 `json:"lonmax"`
}

// MapResult is one aggregated evidence location on the supervision map.
type MapResult struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int64   `json:"count"`
}

// MapEvidenceResponse wraps the aggregated viewport results.
type MapEvidenceResponse struct {
	Results []MapResult `json:"results"`
}

// ReportSubmittedEvent is published to the broker and broadcast to live
// dashboards when a report is accepted.
type ReportSubmittedEvent struct {
	Seq         int64               `json:"seq"`
	CaseID      string              `json:"case_id"`
	CaseNumber  string              `json:"case_number"`
	AgentID     string              `json:"agent_id"`
	FormType    validation.FormType `json:"form_type"`
	FinalStatus string              `json:"final_status"`
	SubmittedAt time.Time           `json:"submitted_at"`
}

// BroadcastMessage is the envelope sent to WebSocket clients.
type BroadcastMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}
