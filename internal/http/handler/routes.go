package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"patentcheck/internal/intake"
	"patentcheck/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, gate *intake.Gate, docSvc service.DocumentService, analysisSvc service.AnalysisService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/intake/policy", IntakePolicy(gate))

	docs := app.Group("/documents")
	docs.Post("/validate", ValidateDocument(docSvc))
	docs.Get("/", ListDocuments(docSvc))
	docs.Post("/", UploadDocument(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Get("/:id/download", DownloadDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))
	docs.Post("/:id/analyses", StartDocumentAnalysis(analysisSvc))

	analyses := app.Group("/analyses")
	analyses.Post("/", StartTextAnalysis(analysisSvc))
	analyses.Get("/", ListAnalyses(analysisSvc))
	analyses.Get("/:id", GetAnalysis(analysisSvc))
	analyses.Post("/:id/cancel", CancelAnalysis(analysisSvc))
	analyses.Get("/:id/export", ExportAnalysis(analysisSvc))
}
