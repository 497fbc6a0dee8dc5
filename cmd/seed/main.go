package main

import (
	"log"

	"slip-catalog-backend/internal/config"
	"slip-catalog-backend/internal/models"

	"github.com/joho/godotenv"
	"gorm.io/gorm/clause"
)

// Seeds the initial batch catalog. Ids are fixed so that existing slip data
// keeps pointing at the same batches across re-runs.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	db := config.InitDB()
	if err := db.AutoMigrate(&models.Batch{}); err != nil {
		log.Fatal("migrate batches: ", err)
	}

	batches := []models.Batch{
		{ID: 3, Name: "0017", Active: true},
		{ID: 6, Name: "0018", Active: true},
		{ID: 7, Name: "0019", Active: true},
		{ID: 8, Name: "0020", Active: true},
		{ID: 9, Name: "0021", Active: true},
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&batches)
	if result.Error != nil {
		log.Fatal("seed batches: ", result.Error)
	}
	log.Printf("Seed finished, %d batches inserted", result.RowsAffected)
}
