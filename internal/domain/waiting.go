package domain

import "time"

// WaitingParticipant 表示已申请进入开启了等候室的房间、但尚未被主持人放行的用户。
// 只存放在 Redis 中，不落库。
type WaitingParticipant struct {
	UserID      uint      `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	RequestedAt time.Time `json:"requestedAt"`
}
