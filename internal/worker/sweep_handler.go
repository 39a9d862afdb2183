package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/service"
	"github.com/4sizn/animal-zoom-sub000/internal/tasks"
)

// RoomSweeper 由 service.RoomService 实现
type RoomSweeper interface {
	SweepRooms(ctx context.Context, idleAfter time.Duration, live []string) (*service.SweepReport, error)
}

// LiveRooms 返回本进程仍有连接挂载的房间码，由 hub.Hub 实现
type LiveRooms interface {
	ActiveRoomCodes() []string
}

// RoomSweepHandler 处理房间维护任务
type RoomSweepHandler struct {
	rooms RoomSweeper
	live  LiveRooms
}

// NewRoomSweepHandler 创建 Handler 实例
func NewRoomSweepHandler(rooms RoomSweeper, live LiveRooms) *RoomSweepHandler {
	if rooms == nil {
		panic("RoomSweeper cannot be nil for RoomSweepHandler")
	}
	if live == nil {
		panic("LiveRooms cannot be nil for RoomSweepHandler")
	}
	return &RoomSweepHandler{rooms: rooms, live: live}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *RoomSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
	})

	var payload tasks.RoomSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logCtx.WithError(err).Error("Failed to unmarshal task payload")
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	report, err := h.rooms.SweepRooms(ctx, payload.IdleAfter(), h.live.ActiveRoomCodes())
	if err != nil {
		logCtx.WithError(err).Error("Room sweep failed")
		return fmt.Errorf("room sweep: %w", err)
	}

	logCtx.WithFields(logrus.Fields{
		"scanned":    report.Scanned,
		"reconciled": report.Reconciled,
		"closed":     report.Closed,
	}).Info("Room sweep task processed successfully")
	return nil
}
