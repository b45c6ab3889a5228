package main

import (
	"fmt"
	"strconv"

	"caseflow/config"
	"caseflow/database"
	"caseflow/email"
	"caseflow/handlers"
	"caseflow/middleware"
	"caseflow/rabbitmq"
	"caseflow/utils"
	"caseflow/version"
	"caseflow/websocket"

	"github.com/apex/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

const (
	EndPointHealth           = "/health"
	EndPointSubmitReport     = "/submit_report"
	EndPointUploadEvidence   = "/upload_evidence"
	EndPointDeleteEvidence   = "/delete_evidence"
	EndPointGetEvidenceCount = "/get_evidence_count"
	EndPointGetReport        = "/get_report"
	EndPointGetCase          = "/get_case"
	EndPointMapEvidence      = "/map_evidence"
	EndPointListenReports    = "/ws/reports"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Info("Starting the caseflow service...")

	// Connect to database
	db, err := utils.DBConnect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize database schema
	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Initialize services
	reportService := database.NewReportService(db)

	hub := websocket.NewHub()
	go hub.Run()

	var publisher *rabbitmq.Publisher
	if cfg.AMQPUrl != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.AMQPUrl, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.Warnf("RabbitMQ unavailable, submission events disabled: %v", err)
		} else {
			defer publisher.Close()
		}
	}

	notifier := email.NewNotifier(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFrom)
	if notifier == nil {
		log.Info("SENDGRID_API_KEY not set, email notifications disabled")
	}

	// Initialize handlers
	reportsHandler := handlers.NewReportsHandler(reportService, hub, publisher, notifier, cfg)

	// Setup router
	router := gin.Default()
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, version.Get("caseflow"))
	})

	// Register health endpoint (outside API group)
	router.GET(EndPointHealth, reportsHandler.HealthCheck)

	// Create API v3 router group
	apiV3 := router.Group("/api/v3")
	{
		apiV3.POST(EndPointSubmitReport, middleware.AuthMiddleware(cfg), reportsHandler.SubmitReport)
		apiV3.POST(EndPointUploadEvidence, middleware.AuthMiddleware(cfg), reportsHandler.UploadEvidence)
		apiV3.DELETE(EndPointDeleteEvidence, middleware.AuthMiddleware(cfg), reportsHandler.DeleteEvidence)
		apiV3.GET(EndPointGetEvidenceCount, reportsHandler.GetEvidenceCount)
		apiV3.GET(EndPointGetReport, reportsHandler.GetReport)
		apiV3.GET(EndPointGetCase, reportsHandler.GetCase)
		apiV3.GET(EndPointMapEvidence, reportsHandler.MapEvidence)
		apiV3.GET(EndPointListenReports, reportsHandler.ListenReports)
	}

	// Get server port from config
	serverPort, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Fatalf("Invalid PORT configuration: %v", err)
	}

	// Start server
	log.Infof("Caseflow service starting on port %d", serverPort)
	if err := router.Run(fmt.Sprintf(":%d", serverPort)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
