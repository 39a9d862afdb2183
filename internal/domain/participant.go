package domain

import "time"

// 参与者角色
const (
	RoleHost        = "host"
	RoleParticipant = "participant"
)

// Participant 是房间成员关系记录。
// 同一 (room, user) 同时最多只有一条 IsActive=true 的记录，重新加入会新建一行。
type Participant struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	RoomID   uint       `gorm:"index:idx_participant_room_user_active,priority:1;not null" json:"roomId"`
	UserID   uint       `gorm:"index:idx_participant_room_user_active,priority:2;index;not null" json:"userId"`
	Role     string     `gorm:"size:16;not null;default:participant" json:"role"`
	IsActive bool       `gorm:"index:idx_participant_room_user_active,priority:3;not null" json:"isActive"`
	JoinedAt time.Time  `gorm:"not null" json:"joinedAt"`
	LeftAt   *time.Time `json:"leftAt,omitempty"`
}

// IsHost 报告该成员是否持有主持人角色。
func (p *Participant) IsHost() bool { return p.Role == RoleHost }

// ParticipantView 是带有用户显示名的活跃参与者视图，用于下发给客户端。
type ParticipantView struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"userId"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"isActive"`
	JoinedAt    time.Time `json:"joinedAt"`
}
