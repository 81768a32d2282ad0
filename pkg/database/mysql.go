// Package database 负责建立 MySQL 与 Redis 连接。
package database

import (
	"fmt"
	"time"

	"github.com/nggaadaotak/kintari-be/internal/config"
	"github.com/nggaadaotak/kintari-be/pkg/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewMySQL 打开 MySQL 连接并配置连接池。
func NewMySQL(cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("MySQL database connected successfully")
	return db, nil
}

// AutoMigrate 创建或更新给定模型对应的表结构。
func AutoMigrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}
