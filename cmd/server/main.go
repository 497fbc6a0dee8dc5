package main

import (
	"log"
	"time"

	"slip-catalog-backend/internal/config"
	"slip-catalog-backend/internal/models"
	"slip-catalog-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	db := config.InitDB()

	db.AutoMigrate(
		&models.Batch{},
		&models.Slip{},
		&models.ImportRun{},
	)

	// AutoMigrate cannot emit this without an association field on Slip
	if !db.Migrator().HasConstraint(&models.Slip{}, "fk_slips_batch") {
		if err := db.Exec(
			"ALTER TABLE slips ADD CONSTRAINT fk_slips_batch FOREIGN KEY (batch_id) REFERENCES batches(id) ON UPDATE CASCADE ON DELETE RESTRICT",
		).Error; err != nil {
			log.Println("WARNING: could not add slips.batch_id foreign key:", err)
		}
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db)

	r.Run(":" + config.Port())
}
