package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens the registry database. DB_DRIVER=mysql (default when MYSQL_* is set)
// or sqlite (SQLITE_PATH, default modular.db).
func NewDB() (*gorm.DB, error) {
	logMode := logger.Warn
	switch strings.ToLower(os.Getenv("GORM_LOG")) {
	case "off":
		logMode = logger.Silent
	case "info":
		logMode = logger.Info
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // Use log.Logger for Printf support
		logger.Config{
			SlowThreshold: time.Second, // Slow SQL threshold
			LogLevel:      logMode,     // Log level
			Colorful:      true,        // Enable color
		},
	)

	dialector, err := dialector()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func dialector() (gorm.Dialector, error) {
	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite"
		if os.Getenv("MYSQL_DSN") != "" || os.Getenv("MYSQL_HOST") != "" {
			driver = "mysql"
		}
	}
	switch driver {
	case "mysql":
		return mysql.Open(mysqlDSN()), nil
	case "sqlite":
		return sqlite.Open(GetEnv("SQLITE_PATH", "modular.db")), nil
	default:
		return nil, fmt.Errorf("config: unsupported DB_DRIVER %q", driver)
	}
}

func mysqlDSN() string {
	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		return dsn
	}
	user := os.Getenv("MYSQL_USER")
	pass := os.Getenv("MYSQL_PASS")
	host := os.Getenv("MYSQL_HOST")
	port := GetEnv("MYSQL_PORT", "3306")
	db := os.Getenv("MYSQL_DB")
	// multiStatements lets golang-migrate run multi-statement module migrations.
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=Local&multiStatements=true", user, pass, host, port, db)
}
