package main

import (
	"os"
	"time"

	"soa-reconciliation-backend/internal/config"
	"soa-reconciliation-backend/internal/models"
	"soa-reconciliation-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, relying on system env")
	}

	db := config.InitDB()

	if err := db.AutoMigrate(
		&models.Statement{},
		&models.SOALine{},
		&models.LedgerInvoice{},
		&models.SOAMatch{},
		&models.SOAIssue{},
		&models.DebitNote{},
		&models.Acknowledgement{},
		&models.MatchAuditLog{},
	); err != nil {
		logrus.WithError(err).Fatal("auto-migration failed")
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Vendor-ID", "X-Company-ID", "X-Actor-ID", "X-Actor-Capabilities"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}
