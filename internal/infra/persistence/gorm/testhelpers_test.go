package gormpersistence

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	"github.com/4sizn/animal-zoom-sub000/internal/infra/setup"
)

// newTestDB 为每个测试创建独立的内存 SQLite 数据库并完成迁移
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, setup.MigrateDB(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, displayName string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Password: "hash", DisplayName: displayName}
	require.NoError(t, db.Create(u).Error)
	return u
}

func newRoom(code string, hostID uint, max int) (*domain.Room, *domain.Participant) {
	now := time.Now()
	room := &domain.Room{
		Code:                code,
		Name:                "room " + code,
		HostID:              hostID,
		Status:              domain.RoomStatusActive,
		CurrentParticipants: 1,
		MaxParticipants:     max,
		LastActivityAt:      now,
	}
	host := &domain.Participant{UserID: hostID, Role: domain.RoleHost, IsActive: true, JoinedAt: now}
	return room, host
}
