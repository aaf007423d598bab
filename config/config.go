package config

import (
	"fmt"
	"os"

	"github.com/loganand612/inspection-server/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDB opens the PostgreSQL connection and migrates the schema.
func ConnectDB() {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		host, user, password, dbName, port)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		Log.Fatalf("failed to connect database: %v", err)
	}

	if err := Migrate(db); err != nil {
		Log.Fatalf("failed to migrate: %v", err)
	}

	DB = db
	Log.Info("Connected to PostgreSQL & migrated successfully")
}

// Migrate runs AutoMigrate for every model. Shared with the test
// suites, which run it against an in-memory SQLite database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Template{},
		&models.Section{},
		&models.Question{},
		&models.QuestionOption{},
		&models.TemplateAssignment{},
		&models.Inspection{},
		&models.InspectionAnswer{},
		&models.ConditionalAnswer{},
		&models.EvidenceAttachment{},
		&models.DisplayMessageAck{},
	)
}
