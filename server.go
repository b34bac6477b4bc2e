package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/controllers"
	"github.com/grcsuite/auditoria_backend/middlewares"
	"github.com/grcsuite/auditoria_backend/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("auditoria-backend")

// tracingMiddleware opens a span per request so handler work and the otelgorm
// spans underneath share one trace.
func tracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.FullPath()
		if name == "" {
			name = c.Request.URL.Path
		}
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+name)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// customErrorLogger logs only requests that accumulated gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"errors": []string{"route not found"}})
}

func registerRoutes(r *gin.Engine) {
	perm := middlewares.RequirePermission

	r.POST("/auth/login", controllers.Login)

	api := r.Group("/api", middlewares.RequireAuth())
	api.POST("/auth/change-password", controllers.ChangePassword)

	api.GET("/company", perm("companies", "read"), controllers.GetCompany)
	api.PUT("/company", perm("companies", "update"), controllers.UpdateCompany)

	api.POST("/users", perm("users", "create"), controllers.CreateUser)
	api.GET("/users", perm("users", "read"), controllers.GetUsers)
	api.GET("/users/:id", perm("users", "read"), controllers.GetUser)
	api.PUT("/users/:id", perm("users", "update"), controllers.UpdateUser)
	api.PATCH("/users/:id/active", perm("users", "delete"), controllers.ToggleActiveUser)

	api.POST("/roles", perm("roles", "create"), controllers.CreateRole)
	api.GET("/roles", perm("roles", "read"), controllers.GetRoles)
	api.GET("/roles/:id", perm("roles", "read"), controllers.GetRole)
	api.PUT("/roles/:id", perm("roles", "update"), controllers.UpdateRole)
	api.DELETE("/roles/:id", perm("roles", "delete"), controllers.DeleteRole)

	api.POST("/modules", perm("modules", "create"), controllers.CreateModule)
	api.GET("/modules", perm("modules", "read"), controllers.GetModules)
	api.PUT("/modules/:id", perm("modules", "update"), controllers.UpdateModule)
	api.DELETE("/modules/:id", perm("modules", "delete"), controllers.DeleteModule)

	api.POST("/processes", perm("processes", "create"), controllers.CreateProcess)
	api.GET("/processes", perm("processes", "read"), controllers.GetProcesses)
	api.GET("/processes/:id", perm("processes", "read"), controllers.GetProcess)
	api.PUT("/processes/:id", perm("processes", "update"), controllers.UpdateProcess)
	api.PATCH("/processes/:id/active", perm("processes", "delete"), controllers.ToggleActiveProcess)

	api.POST("/risks", perm("risks", "create"), controllers.CreateRisk)
	api.GET("/risks", perm("risks", "read"), controllers.GetRisks)
	api.GET("/risks/:id", perm("risks", "read"), controllers.GetRisk)
	api.PUT("/risks/:id", perm("risks", "update"), controllers.UpdateRisk)
	api.PATCH("/risks/:id/active", perm("risks", "delete"), controllers.ToggleActiveRisk)

	api.POST("/controls", perm("controls", "create"), controllers.CreateControl)
	api.GET("/controls", perm("controls", "read"), controllers.GetControls)
	api.GET("/controls/:id", perm("controls", "read"), controllers.GetControl)
	api.PUT("/controls/:id", perm("controls", "update"), controllers.UpdateControl)
	api.PATCH("/controls/:id/active", perm("controls", "delete"), controllers.ToggleActiveControl)

	api.POST("/events", perm("events", "create"), controllers.CreateEvent)
	api.GET("/events", perm("events", "read"), controllers.GetEvents)
	api.GET("/events/:id", perm("events", "read"), controllers.GetEvent)
	api.PUT("/events/:id", perm("events", "update"), controllers.UpdateEvent)
	api.PATCH("/events/:id/active", perm("events", "delete"), controllers.ToggleActiveEvent)

	api.POST("/audit-programs", perm("audit_programs", "create"), controllers.CreateAuditProgram)
	api.GET("/audit-programs", perm("audit_programs", "read"), controllers.GetAuditPrograms)
	api.GET("/audit-programs/:identifier", perm("audit_programs", "read"), controllers.GetAuditProgram)
	api.PUT("/audit-programs/:identifier", perm("audit_programs", "update"), controllers.UpdateAuditProgram)
	api.PATCH("/audit-programs/:identifier/planning-status", perm("audit_programs", "update"), controllers.UpdatePlanningStatus)
	api.PATCH("/audit-programs/:identifier/execution-status", perm("audit_programs", "update"), controllers.UpdateExecutionStatus)
	api.PATCH("/audit-programs/:identifier/report-status", perm("audit_programs", "update"), controllers.UpdateReportStatus)
	api.PATCH("/audit-programs/:identifier/suspend", perm("audit_programs", "delete"), controllers.SuspendAuditProgram)
	api.PATCH("/audit-programs/:identifier/activate", perm("audit_programs", "delete"), controllers.ActivateAuditProgram)
	api.PUT("/audit-programs/:identifier/report", perm("audit_programs", "update"),
		middlewares.RequireProgramPhase(models.PhaseReport), controllers.UpdateReportNarrative)
	api.PUT("/audit-programs/:identifier/process-controls", perm("audit_programs", "update"),
		middlewares.RequireProgramPhase(models.PhasePlanning), controllers.UpdateProgramProcessControls)
	api.PUT("/audit-programs/:identifier/users", perm("audit_programs", "update"),
		middlewares.RequireProgramPhase(models.PhasePlanning), controllers.UpdateProgramUsers)
	api.POST("/audit-programs/:identifier/tests", perm("audit_tests", "create"),
		middlewares.RequireProgramPhase(models.PhaseExecution), controllers.CreateAuditTest)
	api.GET("/audit-programs/:identifier/report-export", perm("audit_programs", "read"), controllers.ExportProgramReport)
	api.GET("/audit-programs/:identifier/report-payload", perm("audit_programs", "read"), controllers.GetProgramReport)

	api.GET("/audit-tests", perm("audit_tests", "read"), controllers.GetAuditTests)
	api.GET("/audit-tests/:identifier", perm("audit_tests", "read"), controllers.GetAuditTest)
	api.PUT("/audit-tests/:identifier", perm("audit_tests", "update"),
		middlewares.RequireTestPhase(models.PhaseExecution), controllers.UpdateAuditTest)
	api.PATCH("/audit-tests/:identifier/status", perm("audit_tests", "update"),
		middlewares.RequireTestPhase(models.PhaseExecution), controllers.UpdateAuditTestStatus)
	api.PUT("/audit-tests/:identifier/controls", perm("audit_tests", "update"),
		middlewares.RequireTestPhase(models.PhaseExecution), controllers.UpdateTestControls)
	api.PUT("/audit-tests/:identifier/users", perm("audit_tests", "update"),
		middlewares.RequireTestPhase(models.PhaseExecution), controllers.UpdateTestUsers)

	api.POST("/audit-findings", perm("audit_findings", "create"), controllers.CreateAuditFinding)
	api.GET("/audit-findings", perm("audit_findings", "read"), controllers.GetAuditFindings)
	api.GET("/audit-findings/:identifier", perm("audit_findings", "read"), controllers.GetAuditFinding)
	api.PUT("/audit-findings/:identifier", perm("audit_findings", "update"),
		middlewares.RequireFindingPhase(models.PhaseExecution), controllers.UpdateAuditFinding)
	api.PUT("/audit-findings/:identifier/controls", perm("audit_findings", "update"),
		middlewares.RequireFindingPhase(models.PhaseExecution), controllers.UpdateFindingControls)

	api.POST("/action-plans", perm("action_plans", "create"), controllers.CreateActionPlan)
	api.GET("/action-plans", perm("action_plans", "read"), controllers.GetActionPlans)
	api.GET("/action-plans/:id", perm("action_plans", "read"), controllers.GetActionPlan)
	api.PUT("/action-plans/:id", perm("action_plans", "update"), controllers.UpdateActionPlan)
	api.PATCH("/action-plans/:id/active", perm("action_plans", "delete"), controllers.ToggleActiveActionPlan)

	api.POST("/attachments", perm("attachments", "create"), controllers.UploadAttachment)
	api.GET("/attachments", perm("attachments", "read"), controllers.GetAttachments)
	api.DELETE("/attachments/:id", perm("attachments", "delete"), controllers.DeleteAttachment)

	api.GET("/reports/heat-map", perm("reports", "read"), controllers.GetHeatMap)
	api.GET("/reports/risk-matrix", perm("reports", "read"), controllers.GetRiskMatrix)
	api.GET("/reports/risk-matrix-export", perm("reports", "read"), controllers.ExportRiskMatrix)
	api.GET("/reports/dashboard", perm("reports", "read"), controllers.GetDashboard)

	api.GET("/histories", perm("histories", "read"), controllers.GetHistories)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "X-Correlation-Id")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(tracingMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateTable(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	if err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error; err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Warn("failed to set isolation level: " + err.Error())
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
