package db

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"workshop_tool_inventory/config"
	"workshop_tool_inventory/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ConnectDB(cfg config.Config) (*gorm.DB, error) {
	gl := newGormLogger(cfg.GormLog)

	var (
		conn *gorm.DB
		err  error
	)
	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL (or DB_HOST...) is required for postgres")
		}
		conn, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{Logger: gl})
	case "sqlite", "":
		if dir := filepath.Dir(cfg.DatabaseURL); dir != "." && !strings.HasPrefix(cfg.DatabaseURL, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		conn, err = OpenSQLite(cfg.DatabaseURL, gl)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Printf("database connected (%s)", conn.Dialector.Name())
	return conn, nil
}

// OpenSQLite 只开一个连接：SQLite 写锁是库级的，单连接把所有事务串行化，
// 同时让 :memory: 库在测试里保持同一份数据。
func OpenSQLite(dsn string, gl logger.Interface) (*gorm.DB, error) {
	if gl == nil {
		gl = logger.Discard
	}
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if err := conn.Exec(pragma).Error; err != nil {
			return nil, err
		}
	}
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Item{}, &models.Employee{}, &models.Loan{}, &models.AuditLog{}); err != nil {
		return err
	}

	// 查某物品最近一条未还借用（checkin 用）
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_active_item_checkout_desc
	  ON %s (item_id, checkout_at DESC, id DESC)
	  WHERE status = 'active';
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	// 外部目录编号非空时唯一，导入按它 upsert
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_catalog_id_unique
	  ON %s (catalog_id)
	  WHERE catalog_id <> '';
	`, models.ItemTable, models.ItemTable)).Error; err != nil {
		return err
	}

	return nil
}

func newGormLogger(level string) logger.Interface {
	lv := logger.Warn
	switch strings.ToLower(level) {
	case "off", "silent":
		return logger.Discard
	case "info":
		lv = logger.Info
	case "error":
		lv = logger.Error
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  lv,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
