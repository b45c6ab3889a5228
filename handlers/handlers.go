package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"caseflow/config"
	"caseflow/database"
	"caseflow/email"
	"caseflow/geo"
	"caseflow/image"
	"caseflow/middleware"
	"caseflow/models"
	"caseflow/rabbitmq"
	"caseflow/validation"
	"caseflow/websocket"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const apiVersion = "2.0"

// ReportsHandler contains all HTTP handlers for the caseflow service
type ReportsHandler struct {
	service   *database.ReportService
	hub       *websocket.Hub
	publisher *rabbitmq.Publisher
	notifier  *email.Notifier
	cfg       *config.Config
}

// NewReportsHandler creates a new handlers instance. The publisher and
// notifier may be nil; submission then skips eventing and email.
func NewReportsHandler(service *database.ReportService, hub *websocket.Hub,
	publisher *rabbitmq.Publisher, notifier *email.Notifier, cfg *config.Config) *ReportsHandler {
	return &ReportsHandler{
		service:   service,
		hub:       hub,
		publisher: publisher,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// HealthCheck returns a simple health status
func (h *ReportsHandler) HealthCheck(c *gin.Context) {
	connected, lastSeq := h.hub.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"service":            "caseflow",
		"connected_clients":  connected,
		"last_broadcast_seq": lastSeq,
	})
}

// SubmitReport validates a filled report form against its case's rule set and
// stores it when complete.
func (h *ReportsHandler) SubmitReport(c *gin.Context) {
	args := &models.SubmitReportRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /submit_report call: %v", err)
		return
	}
	if args.Version != apiVersion {
		log.Warnf("Bad version in /submit_report, expected: %s, got: %s", apiVersion, args.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.")
		return
	}

	caseRecord, err := h.service.GetCase(c.Request.Context(), args.CaseID)
	if err != nil {
		log.Errorf("Error loading case %s: %v", args.CaseID, err)
		c.String(http.StatusNotFound, fmt.Sprint(err))
		return
	}
	if args.FormType != "" && args.FormType != caseRecord.FormType {
		c.String(http.StatusBadRequest,
			fmt.Sprintf("Case %s expects a %s form.", args.CaseID, caseRecord.FormType))
		return
	}

	rules, ok := validation.ForForm(caseRecord.FormType)
	if !ok {
		log.Errorf("Case %s has unknown form type %s", args.CaseID, caseRecord.FormType)
		c.String(http.StatusInternalServerError, "Unknown form type.")
		return
	}

	imageCount, err := h.service.CountEvidence(c.Request.Context(), args.CaseID)
	if err != nil {
		log.Errorf("Error counting evidence for case %s: %v", args.CaseID, err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}

	rec := validation.Record(args.Fields)
	if msg := validation.Message(rec, imageCount, rules); msg != "" {
		resp := models.ValidationFailureResponse{Message: msg}
		if msg == validation.MsgMissingFields {
			resp.MissingFields = validation.Check(rec, rules)
		}
		log.Infof("Rejected submission for case %s: %s", args.CaseID, msg)
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	finalStatus, _ := rec[validation.FieldFinalStatus].(string)
	agentID := middleware.GetAgentID(c)

	seq, err := h.service.SubmitReport(c.Request.Context(), &models.Report{
		CaseID:      args.CaseID,
		AgentID:     agentID,
		FormType:    caseRecord.FormType,
		FinalStatus: finalStatus,
		Fields:      args.Fields,
	})
	if err != nil {
		log.Errorf("Error saving report for case %s: %v", args.CaseID, err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}

	event := models.ReportSubmittedEvent{
		Seq:         seq,
		CaseID:      args.CaseID,
		CaseNumber:  caseRecord.CaseNumber,
		AgentID:     agentID,
		FormType:    caseRecord.FormType,
		FinalStatus: finalStatus,
		SubmittedAt: time.Now().UTC(),
	}
	h.hub.BroadcastReport(event)
	if h.publisher != nil {
		// A broker outage must not fail an accepted submission.
		if err := h.publisher.Publish(event); err != nil {
			log.Errorf("Failed to publish submission event for case %s: %v", args.CaseID, err)
		}
	}
	if err := h.notifier.SendSubmissionNotice(caseRecord.ContactEmail, caseRecord.CaseNumber, finalStatus); err != nil {
		log.Errorf("Failed to email submission notice for case %s: %v", args.CaseID, err)
	}

	c.JSON(http.StatusOK, models.SubmitReportResponse{Seq: seq})
}

// UploadEvidence stores one captured photo for a case.
func (h *ReportsHandler) UploadEvidence(c *gin.Context) {
	args := &models.UploadEvidenceRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /upload_evidence call: %v", err)
		return
	}
	if args.Version != apiVersion {
		log.Warnf("Bad version in /upload_evidence, expected: %s, got: %s", apiVersion, args.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.")
		return
	}
	if len(args.Image) == 0 {
		c.String(http.StatusBadRequest, "Image payload is required.")
		return
	}

	caseRecord, err := h.service.GetCase(c.Request.Context(), args.CaseID)
	if err != nil {
		log.Errorf("Error loading case %s: %v", args.CaseID, err)
		c.String(http.StatusNotFound, fmt.Sprint(err))
		return
	}

	var lat, lon float64
	if args.Latitude != nil && args.Longitude != nil {
		lat, lon = *args.Latitude, *args.Longitude
	} else if exifLat, exifLon, ok := image.GeoTag(args.Image); ok {
		lat, lon = exifLat, exifLon
		log.Infof("Using EXIF geotag %f,%f for case %s", lat, lon, args.CaseID)
	} else {
		c.String(http.StatusBadRequest, "Capture location is required and the image has no geotag.")
		return
	}

	if h.cfg.MaxEvidenceDistanceMeters > 0 && (caseRecord.Latitude != 0 || caseRecord.Longitude != 0) {
		dist := geo.DistanceMeters(lat, lon, caseRecord.Latitude, caseRecord.Longitude)
		if dist > float64(h.cfg.MaxEvidenceDistanceMeters) {
			log.Warnf("Evidence for case %s captured %.0fm from the address", args.CaseID, dist)
			c.String(http.StatusUnprocessableEntity,
				fmt.Sprintf("Photo captured %.0fm from the case address, maximum is %dm.",
					dist, h.cfg.MaxEvidenceDistanceMeters))
			return
		}
	}

	normalized, err := image.Normalize(args.Image)
	if err != nil {
		log.Errorf("Error normalizing evidence image for case %s: %v", args.CaseID, err)
		c.String(http.StatusBadRequest, "Could not decode the image payload.")
		return
	}

	takenAt := time.Now().UTC()
	if args.TakenAt != "" {
		if ts, err := time.Parse(time.RFC3339, args.TakenAt); err == nil {
			takenAt = ts.UTC()
		} else {
			log.Warnf("Ignoring unparseable taken_at %q for case %s", args.TakenAt, args.CaseID)
		}
	}

	img := &models.EvidenceImage{
		ID:        uuid.NewString(),
		CaseID:    args.CaseID,
		Image:     normalized,
		Latitude:  lat,
		Longitude: lon,
		S2Cell:    geo.CellID(lat, lon),
		TakenAt:   takenAt,
	}
	if err := h.service.SaveEvidence(c.Request.Context(), img); err != nil {
		log.Errorf("Error saving evidence for case %s: %v", args.CaseID, err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}

	count, err := h.service.CountEvidence(c.Request.Context(), args.CaseID)
	if err != nil {
		log.Errorf("Error counting evidence for case %s: %v", args.CaseID, err)
		count = 0
	}

	c.JSON(http.StatusOK, models.UploadEvidenceResponse{
		ID:        img.ID,
		Latitude:  lat,
		Longitude: lon,
		Count:     count,
	})
}

// DeleteEvidence removes a captured photo by id.
func (h *ReportsHandler) DeleteEvidence(c *gin.Context) {
	args := &models.DeleteEvidenceRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /delete_evidence call: %v", err)
		return
	}
	if args.Version != apiVersion {
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.")
		return
	}

	found, err := h.service.DeleteEvidence(c.Request.Context(), args.ID)
	if err != nil {
		log.Errorf("Error deleting evidence %s: %v", args.ID, err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}
	if !found {
		c.String(http.StatusNotFound, fmt.Sprintf("Evidence %s wasn't found.", args.ID))
		return
	}
	c.Status(http.StatusOK)
}

// GetEvidenceCount returns the current photo count for a case.
func (h *ReportsHandler) GetEvidenceCount(c *gin.Context) {
	caseID, ok := c.GetQuery("case_id")
	if !ok {
		c.String(http.StatusBadRequest, "case_id is required")
		return
	}

	count, err := h.service.CountEvidence(c.Request.Context(), caseID)
	if err != nil {
		log.Errorf("Error counting evidence for case %s: %v", caseID, err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}
	c.IndentedJSON(http.StatusOK, models.EvidenceCountResponse{CaseID: caseID, Count: count})
}

// GetReport returns a stored report with its field values.
func (h *ReportsHandler) GetReport(c *gin.Context) {
	seqStr, ok := c.GetQuery("seq")
	if !ok {
		c.String(http.StatusBadRequest, "seq is required")
		return
	}
	seq, err := strconv.Atoi(seqStr)
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("Parsing seq: %v", err))
		return
	}

	rep, err := h.service.GetReport(c.Request.Context(), seq)
	if err != nil {
		log.Errorf("Error getting report %d: %v", seq, err)
		c.String(http.StatusNotFound, fmt.Sprint(err))
		return
	}
	c.IndentedJSON(http.StatusOK, rep)
}

// GetCase returns a verification case.
func (h *ReportsHandler) GetCase(c *gin.Context) {
	caseID, ok := c.GetQuery("case_id")
	if !ok {
		c.String(http.StatusBadRequest, "case_id is required")
		return
	}

	caseRecord, err := h.service.GetCase(c.Request.Context(), caseID)
	if err != nil {
		log.Errorf("Error getting case %s: %v", caseID, err)
		c.String(http.StatusNotFound, fmt.Sprint(err))
		return
	}
	c.IndentedJSON(http.StatusOK, caseRecord)
}

// MapEvidence returns S2-aggregated evidence locations for a viewport.
func (h *ReportsHandler) MapEvidence(c *gin.Context) {
	vp, err := parseViewPort(c)
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprint(err))
		return
	}

	locations, err := h.service.EvidenceLocations(c.Request.Context(), vp)
	if err != nil {
		log.Errorf("Error getting evidence locations for viewport %v: %v", vp, err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}

	aggr := geo.NewAggregator(vp)
	for _, loc := range locations {
		aggr.AddPoint(loc.Latitude, loc.Longitude)
	}
	c.IndentedJSON(http.StatusOK, models.MapEvidenceResponse{Results: aggr.Results()})
}

func parseViewPort(c *gin.Context) (*models.ViewPort, error) {
	parse := func(name string) (float64, error) {
		s, ok := c.GetQuery(name)
		if !ok {
			return 0, fmt.Errorf("%s is required", name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %v", name, err)
		}
		return v, nil
	}

	var (
		vp  models.ViewPort
		err error
	)
	if vp.LatMin, err = parse("sw_lat"); err != nil {
		return nil, err
	}
	if vp.LonMin, err = parse("sw_lon"); err != nil {
		return nil, err
	}
	if vp.LatMax, err = parse("ne_lat"); err != nil {
		return nil, err
	}
	if vp.LonMax, err = parse("ne_lon"); err != nil {
		return nil, err
	}
	return &vp, nil
}
