package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	handler "slip-catalog-backend/internal/handlers"
	"slip-catalog-backend/internal/repository"
	"slip-catalog-backend/internal/services/csvimport"
	"slip-catalog-backend/internal/services/pdfsplit"
	"slip-catalog-backend/internal/services/report"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB) {
	batchRepo := repository.NewBatchRepository(db)
	slipRepo := repository.NewSlipRepository(db)
	runRepo := repository.NewImportRunRepository(db)

	csvService := csvimport.New(batchRepo, slipRepo)
	pdfService := pdfsplit.New(slipRepo)
	reportRenderer := report.NewRenderer()

	slipHandler := handler.NewSlipHandler(csvService, pdfService, reportRenderer, slipRepo, runRepo)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	imports := api.Group("/import")
	imports.POST("/csv", slipHandler.ImportCsv)
	imports.POST("/pdf", slipHandler.ImportPdf)

	api.GET("/slips", slipHandler.ListSlips)
}
