package db

import (
	"fmt"
	"log"
	"os"

	"toolhub/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{}, &models.Person{},
		&models.Location{}, &models.UserLocation{},
		&models.Tool{}, &models.Assignment{},
		&models.Event{}, &models.ToolRequest{},
	); err != nil {
		return err
	}

	// 同一工具最多一条“未归还”的保管记录
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_tool
	  ON %s (tool_id)
	  WHERE returned_at IS NULL;
	`, models.AssignmentTable, models.AssignmentTable)).Error; err != nil {
		return err
	}

	// 查询当前保管更快
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_tool_assignedat_desc
	  ON %s (tool_id, assigned_at DESC)
	  WHERE returned_at IS NULL;
	`, models.AssignmentTable, models.AssignmentTable)).Error; err != nil {
		return err
	}

	return nil
}
