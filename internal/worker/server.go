package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/tasks"
)

// WorkerServer 封装了 Asynq Worker Server 的启动和关闭逻辑
type WorkerServer struct {
	server       *asynq.Server
	log          *logrus.Entry
	sweepHandler *RoomSweepHandler
}

// NewWorkerServer 创建一个新的 WorkerServer 实例
func NewWorkerServer(redisOpt asynq.RedisClientOpt, sweepHandler *RoomSweepHandler, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID := ""
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	return &WorkerServer{server: server, log: logEntry, sweepHandler: sweepHandler}
}

// Mux 返回注册了所有任务处理器的路由
func (ws *WorkerServer) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRoomSweep, ws.sweepHandler.ProcessTask)
	return mux
}

// Start 启动 Worker Server 的后台处理，立即返回
func (ws *WorkerServer) Start() error {
	ws.log.Info("Worker server starting...")
	if err := ws.server.Start(ws.Mux()); err != nil {
		if errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Info("Worker server stopped.")
			return nil
		}
		return fmt.Errorf("could not start worker server: %w", err)
	}
	return nil
}

// Shutdown 优雅地关闭 Worker Server
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}

// Scheduler 按 cron 表达式周期性投递房间维护任务
type Scheduler struct {
	scheduler *asynq.Scheduler
	log       *logrus.Entry
	entryID   string
}

// NewScheduler 创建调度器并注册房间维护任务。
// 多个进程同时调度时，Unique 选项保证同一周期内只有一个任务入队。
func NewScheduler(redisOpt asynq.RedisClientOpt, cronspec string, idleAfter time.Duration, logger *logrus.Logger) (*Scheduler, error) {
	logEntry := logger.WithField("component", "scheduler")
	s := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
				logEntry.WithError(err).Warn("Failed to enqueue scheduled task")
			}
		},
	})
	task, err := tasks.NewRoomSweepTask(idleAfter)
	if err != nil {
		return nil, err
	}
	entryID, err := s.Register(cronspec, task, asynq.Unique(time.Minute))
	if err != nil {
		return nil, err
	}
	return &Scheduler{scheduler: s, log: logEntry, entryID: entryID}, nil
}

// Start 启动调度器，立即返回
func (s *Scheduler) Start() error {
	s.log.WithField("entry_id", s.entryID).Info("Scheduler starting...")
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("could not start scheduler: %w", err)
	}
	return nil
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
	s.log.Info("Scheduler shut down complete.")
}
