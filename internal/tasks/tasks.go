package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// 定义任务类型常量
const (
	TypeRoomSweep = "room:sweep" // 房间维护：校正计数并关闭空闲房间
)

// RoomSweepPayload 定义了房间维护任务的数据结构
type RoomSweepPayload struct {
	// 最后活动时间早于该时长且没有在线连接的房间会被关闭，0 表示只关闭没有活跃成员的房间
	IdleAfterSeconds int64 `json:"idle_after_seconds"`
}

// IdleAfter 返回空闲阈值
func (p RoomSweepPayload) IdleAfter() time.Duration {
	return time.Duration(p.IdleAfterSeconds) * time.Second
}

// NewRoomSweepTask 创建一个房间维护任务
func NewRoomSweepTask(idleAfter time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(RoomSweepPayload{IdleAfterSeconds: int64(idleAfter / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRoomSweep, payload, asynq.MaxRetry(1), asynq.Timeout(5*time.Minute)), nil
}
