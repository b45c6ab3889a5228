package database

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"testing"
	"time"

	"caseflow/models"
	"caseflow/validation"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestGetCase(t *testing.T) {
	it(func() {
		s := NewReportService(db)
		now := time.Now()

		testCases := []struct {
			name       string
			caseID     string
			caseExists bool
			fetchError bool

			expectCase  *models.Case
			expectError bool
		}{
			{
				name:       "Existing case",
				caseID:     "case-1",
				caseExists: true,
				expectCase: &models.Case{
					ID:           "case-1",
					CaseNumber:   "CF-2024-0042",
					Applicant:    "R. Sharma",
					Address:      "12 MG Road",
					Latitude:     12.97,
					Longitude:    77.59,
					FormType:     validation.FormResidence,
					ContactEmail: "client@bank.example",
					Status:       models.CaseStatusAssigned,
					CreatedAt:    now,
					UpdatedAt:    now,
				},
				expectError: false,
			},
			{
				name:        "Missing case",
				caseID:      "case-404",
				caseExists:  false,
				expectCase:  nil,
				expectError: true,
			},
			{
				name:        "Fetch error",
				caseID:      "case-1",
				fetchError:  true,
				expectCase:  nil,
				expectError: true,
			},
		}

		columns := []string{
			"case_number", "applicant", "address", "latitude", "longitude",
			"form_type", "contact_email", "status", "created_at", "updated_at",
		}
		for _, testCase := range testCases {
			if testCase.fetchError {
				mock.ExpectQuery("SELECT case_number, applicant, address").
					WithArgs(testCase.caseID).
					WillReturnError(fmt.Errorf("test fetch error"))
			} else {
				rows := sqlmock.NewRows(columns)
				if testCase.caseExists {
					rows.AddRow("CF-2024-0042", "R. Sharma", "12 MG Road", 12.97, 77.59,
						"RESIDENCE", "client@bank.example", models.CaseStatusAssigned, now, now)
				}
				mock.ExpectQuery("SELECT case_number, applicant, address").
					WithArgs(testCase.caseID).
					WillReturnRows(rows)
			}

			c, err := s.GetCase(context.Background(), testCase.caseID)
			if testCase.expectError != (err != nil) {
				t.Errorf("%s, GetCase: expected error: %v, got error: %v", testCase.name, testCase.expectError, err)
			}
			if !reflect.DeepEqual(c, testCase.expectCase) {
				t.Errorf("%s, GetCase: expected %v, got %v", testCase.name, testCase.expectCase, c)
			}
		}
	})
}

func TestCountEvidence(t *testing.T) {
	it(func() {
		s := NewReportService(db)

		testCases := []struct {
			name       string
			caseID     string
			count      int
			fetchError bool

			expectedCount int
			errorExpected bool
		}{
			{
				name:          "Case with photos",
				caseID:        "case-1",
				count:         3,
				expectedCount: 3,
			},
			{
				name:          "Case without photos",
				caseID:        "case-2",
				count:         0,
				expectedCount: 0,
			},
			{
				name:          "Fetch error",
				caseID:        "case-1",
				fetchError:    true,
				errorExpected: true,
			},
		}

		for _, testCase := range testCases {
			if testCase.fetchError {
				mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM evidence_images").
					WithArgs(testCase.caseID).
					WillReturnError(fmt.Errorf("test fetch error"))
			} else {
				mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM evidence_images").
					WithArgs(testCase.caseID).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(testCase.count))
			}

			cnt, err := s.CountEvidence(context.Background(), testCase.caseID)
			if testCase.errorExpected != (err != nil) {
				t.Errorf("%s, CountEvidence: expected error: %v, got error: %v", testCase.name, testCase.errorExpected, err)
			}
			if cnt != testCase.expectedCount {
				t.Errorf("%s, CountEvidence: expected %d, got %d", testCase.name, testCase.expectedCount, cnt)
			}
		}
	})
}

func TestSaveEvidence(t *testing.T) {
	it(func() {
		s := NewReportService(db)
		takenAt := time.Now()

		testCases := []struct {
			name         string
			rowsAffected int64
			execError    bool

			errorExpected bool
		}{
			{
				name:         "Saved",
				rowsAffected: 1,
			},
			{
				name:          "Exec error",
				execError:     true,
				errorExpected: true,
			},
			{
				name:          "No rows affected",
				rowsAffected:  0,
				errorExpected: true,
			},
		}

		img := &models.EvidenceImage{
			ID:        "11111111-2222-3333-4444-555555555555",
			CaseID:    "case-1",
			Image:     []byte{0xff, 0xd8, 0xff},
			Latitude:  12.97,
			Longitude: 77.59,
			S2Cell:    3849112093437545715,
			TakenAt:   takenAt,
		}
		for _, testCase := range testCases {
			exp := mock.ExpectExec("INSERT INTO evidence_images").
				WithArgs(img.ID, img.CaseID, img.Image, img.Latitude, img.Longitude, img.S2Cell, img.TakenAt)
			if testCase.execError {
				exp.WillReturnError(fmt.Errorf("test exec error"))
			} else {
				exp.WillReturnResult(sqlmock.NewResult(1, testCase.rowsAffected))
			}

			if err := s.SaveEvidence(context.Background(), img); testCase.errorExpected != (err != nil) {
				t.Errorf("%s, SaveEvidence: expected error: %v, got error: %v", testCase.name, testCase.errorExpected, err)
			}
		}
	})
}

func TestDeleteEvidence(t *testing.T) {
	it(func() {
		s := NewReportService(db)

		testCases := []struct {
			name         string
			rowsAffected int64
			execError    bool

			expectedFound bool
			errorExpected bool
		}{
			{
				name:          "Existing evidence",
				rowsAffected:  1,
				expectedFound: true,
			},
			{
				name:          "Missing evidence",
				rowsAffected:  0,
				expectedFound: false,
			},
			{
				name:          "Exec error",
				execError:     true,
				errorExpected: true,
			},
		}

		for _, testCase := range testCases {
			exp := mock.ExpectExec("DELETE FROM evidence_images").
				WithArgs("ev-1")
			if testCase.execError {
				exp.WillReturnError(fmt.Errorf("test exec error"))
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, testCase.rowsAffected))
			}

			found, err := s.DeleteEvidence(context.Background(), "ev-1")
			if testCase.errorExpected != (err != nil) {
				t.Errorf("%s, DeleteEvidence: expected error: %v, got error: %v", testCase.name, testCase.errorExpected, err)
			}
			if found != testCase.expectedFound {
				t.Errorf("%s, DeleteEvidence: expected found %v, got %v", testCase.name, testCase.expectedFound, found)
			}
		}
	})
}

func TestSubmitReport(t *testing.T) {
	it(func() {
		s := NewReportService(db)

		rep := &models.Report{
			CaseID:      "case-1",
			AgentID:     "agent-7",
			FormType:    validation.FormResidence,
			FinalStatus: validation.StatusPositive,
			Fields:      map[string]any{"finalStatus": "Positive"},
		}
		fieldsJSON := []byte(`{"finalStatus":"Positive"}`)

		testCases := []struct {
			name        string
			insertError bool
			updateError bool

			expectedSeq   int64
			errorExpected bool
		}{
			{
				name:        "Submitted",
				expectedSeq: 42,
			},
			{
				name:          "Report insert fails",
				insertError:   true,
				errorExpected: true,
			},
			{
				name:          "Case update fails",
				updateError:   true,
				errorExpected: true,
			},
		}

		for _, testCase := range testCases {
			mock.ExpectBegin()
			insert := mock.ExpectExec("INSERT INTO reports").
				WithArgs(rep.CaseID, rep.AgentID, "RESIDENCE", "Positive", fieldsJSON)
			if testCase.insertError {
				insert.WillReturnError(fmt.Errorf("test insert error"))
				mock.ExpectRollback()
			} else {
				insert.WillReturnResult(sqlmock.NewResult(42, 1))
				update := mock.ExpectExec("UPDATE cases SET status").
					WithArgs(models.CaseStatusSubmitted, rep.CaseID)
				if testCase.updateError {
					update.WillReturnError(fmt.Errorf("test update error"))
					mock.ExpectRollback()
				} else {
					update.WillReturnResult(sqlmock.NewResult(0, 1))
					mock.ExpectCommit()
				}
			}

			seq, err := s.SubmitReport(context.Background(), rep)
			if testCase.errorExpected != (err != nil) {
				t.Errorf("%s, SubmitReport: expected error: %v, got error: %v", testCase.name, testCase.errorExpected, err)
			}
			if !testCase.errorExpected && seq != testCase.expectedSeq {
				t.Errorf("%s, SubmitReport: expected seq %d, got %d", testCase.name, testCase.expectedSeq, seq)
			}
		}
	})
}

func TestGetReport(t *testing.T) {
	it(func() {
		s := NewReportService(db)
		ts := time.Now()

		columns := []string{"case_id", "agent_id", "form_type", "final_status", "fields", "ts"}

		mock.ExpectQuery("SELECT case_id, agent_id, form_type").
			WithArgs(42).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("case-1", "agent-7", "RESIDENCE", "Positive",
					[]byte(`{"finalStatus":"Positive","remarks":"ok"}`), ts))

		rep, err := s.GetReport(context.Background(), 42)
		if err != nil {
			t.Fatalf("GetReport: unexpected error: %v", err)
		}
		expected := &models.Report{
			Seq:         42,
			CaseID:      "case-1",
			AgentID:     "agent-7",
			FormType:    validation.FormResidence,
			FinalStatus: "Positive",
			Fields:      map[string]any{"finalStatus": "Positive", "remarks": "ok"},
			Timestamp:   ts,
		}
		if !reflect.DeepEqual(rep, expected) {
			t.Errorf("GetReport: expected %v, got %v", expected, rep)
		}

		mock.ExpectQuery("SELECT case_id, agent_id, form_type").
			WithArgs(999).
			WillReturnRows(sqlmock.NewRows(columns))

		if _, err := s.GetReport(context.Background(), 999); err == nil {
			t.Error("GetReport: expected error for missing report")
		}
	})
}

func TestEvidenceLocations(t *testing.T) {
	it(func() {
		s := NewReportService(db)
		vp := &models.ViewPort{LatMin: 12.9, LonMin: 77.5, LatMax: 13.0, LonMax: 77.7}

		mock.ExpectQuery("SELECT latitude, longitude FROM evidence_images").
			WithArgs(vp.LatMin, vp.LonMin, vp.LatMax, vp.LonMax).
			WillReturnRows(sqlmock.NewRows([]string{"latitude", "longitude"}).
				AddRow(12.97, 77.59).
				AddRow(12.98, 77.61))

		locations, err := s.EvidenceLocations(context.Background(), vp)
		if err != nil {
			t.Fatalf("EvidenceLocations: unexpected error: %v", err)
		}
		expected := []models.MapResult{
			{Latitude: 12.97, Longitude: 77.59, Count: 1},
			{Latitude: 12.98, Longitude: 77.61, Count: 1},
		}
		if !reflect.DeepEqual(locations, expected) {
			t.Errorf("EvidenceLocations: expected %v, got %v", expected, locations)
		}
	})
}
