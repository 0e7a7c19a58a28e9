package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"soa-reconciliation-backend/internal/config"
	handler "soa-reconciliation-backend/internal/handlers"
	"soa-reconciliation-backend/internal/repository"
	"soa-reconciliation-backend/internal/services/debitnote"
	service "soa-reconciliation-backend/internal/services/reconciliation"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB) {
	store := repository.NewStore(db)
	policy := config.LoadPolicy()

	reconService := service.NewService(store, policy)
	dnService := debitnote.NewService(store, reconService)

	reconHandler := handler.NewReconciliationHandler(reconService)
	dnHandler := handler.NewDebitNoteHandler(dnService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	scoped := api.Group("", handler.ScopeMiddleware())

	// Statement routes
	statements := scoped.Group("/statements")
	statements.POST("", reconHandler.CreateStatement)
	statements.GET("/:id", reconHandler.GetStatementStats)
	statements.POST("/:id/lines", reconHandler.IngestLines)
	statements.GET("/:id/lines", reconHandler.ListLines)
	statements.POST("/:id/match", reconHandler.RunMatching)
	statements.POST("/:id/bulk-confirm", reconHandler.BulkConfirmExact)
	statements.GET("/:id/summary", reconHandler.GetSummary)
	statements.GET("/:id/issues", reconHandler.ListIssues)
	statements.POST("/:id/issues", reconHandler.CreateIssue)
	statements.GET("/:id/matches", reconHandler.ListMatches)
	statements.GET("/:id/debit-notes", dnHandler.List)
	statements.POST("/:id/sign-off", reconHandler.SignOff)

	// Match-level routes
	matches := scoped.Group("/matches")
	matches.POST("/:id/confirm", reconHandler.ConfirmMatch)
	matches.POST("/:id/reject", reconHandler.RejectMatch)

	// Line-level routes
	lines := scoped.Group("/lines")
	lines.POST("/:id/match", reconHandler.ManualMatch)

	// Issue routes
	issues := scoped.Group("/issues")
	issues.POST("/:id/resolve", reconHandler.ResolveIssue)

	// Debit note routes
	debitNotes := scoped.Group("/debit-notes")
	debitNotes.POST("", dnHandler.Propose)
	debitNotes.POST("/:id/approve", dnHandler.Approve)
	debitNotes.POST("/:id/post", dnHandler.Post)

	// Ledger invoice seeding
	invoices := scoped.Group("/invoices")
	invoices.POST("", reconHandler.CreateInvoice)
}
