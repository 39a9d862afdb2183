package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
)

// MigrateDB 使用 AutoMigrate 迁移所有领域模型。
// 索引长度由模型上的 size / varchar 标签控制，MySQL 和 SQLite 都能直接使用。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.User{},
		&domain.Room{},
		&domain.Participant{},
		&domain.ChatMessage{},
	)
	if err != nil {
		logrus.Errorf("Failed to auto-migrate tables: %v", err)
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}
