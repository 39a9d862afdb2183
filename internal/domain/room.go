package domain

import "time"

// 房间状态
const (
	RoomStatusActive   = "active"
	RoomStatusInactive = "inactive"
)

// DefaultMaxParticipants 是未指定容量时的房间上限。
const DefaultMaxParticipants = 50

// Room 表示一个虚拟会议房间。
type Room struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`                                // 房间唯一标识符 (主键)
	Code                string    `gorm:"uniqueIndex;size:16;not null" json:"code"`            // 6 位房间码，用户输入加入
	Name                string    `gorm:"size:191" json:"name"`                                // 房间名称 (可选)
	HostID              uint      `gorm:"index;not null" json:"hostId"`                        // 创建房间的用户 ID
	Status              string    `gorm:"size:16;index;not null;default:active" json:"status"` // active / inactive
	CurrentParticipants int       `gorm:"not null;default:0" json:"currentParticipants"`       // 当前活跃参与者计数
	MaxParticipants     int       `gorm:"not null;default:50" json:"maxParticipants"`
	WaitingRoomEnabled  bool      `gorm:"not null;default:false" json:"waitingRoomEnabled"` // 是否开启等候室
	Settings            string    `gorm:"type:text" json:"settings,omitempty"`              // 房间自定义配置 (不透明 JSON)
	LastActivityAt      time.Time `gorm:"index" json:"lastActivityAt"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// IsActive 报告房间是否处于 active 状态。
func (r *Room) IsActive() bool { return r.Status == RoomStatusActive }

// IsFull 使用 >= 判断，刚好满员的房间也拒绝加入。
func (r *Room) IsFull() bool { return r.CurrentParticipants >= r.MaxParticipants }
