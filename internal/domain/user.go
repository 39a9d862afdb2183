// Package domain 定义了应用程序中使用的领域模型 (同时也是 GORM 数据库模型)。
package domain

import "time"

// User 表示应用程序中的用户。
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                                                // 用户唯一标识符 (主键)
	Username     string    `gorm:"type:varchar(191);uniqueIndex:idx_username;not null" json:"username"` // 登录名
	Password     string    `gorm:"type:text;not null" json:"-"`                                         // 哈希后的密码
	DisplayName  string    `gorm:"type:varchar(191)" json:"displayName"`                                // 房间内显示的名字
	AvatarConfig string    `gorm:"type:text" json:"avatarConfig,omitempty"`                             // 头像配置 (不透明 JSON)
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Name 返回用于展示的名字，没有 DisplayName 时回退到 Username。
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
