package domain

import "time"

// ChatMessage 是持久化的聊天记录，用于加入房间时回放最近消息。
type ChatMessage struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	MessageID  string    `gorm:"size:26;uniqueIndex;not null" json:"id"` // ULID，可按字典序排序
	RoomID     uint      `gorm:"index;not null" json:"roomId"`
	SenderID   uint      `gorm:"index;not null" json:"senderId"`
	SenderName string    `gorm:"size:191" json:"senderName"`
	Content    string    `gorm:"type:text;not null" json:"message"`
	CreatedAt  time.Time `gorm:"index" json:"timestamp"`
}
