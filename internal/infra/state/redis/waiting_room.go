package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	"github.com/4sizn/animal-zoom-sub000/internal/repository"
)

// DefaultKeyPrefix 是未配置前缀时使用的 key 前缀
const DefaultKeyPrefix = "az:"

// waitingTTL 是等候室 hash 的过期时间，每次有人加入时刷新
const waitingTTL = 24 * time.Hour

// RedisWaitingRoomRepository 是 WaitingRoomRepository 接口的 Redis 实现。
// 每个房间一个 hash：field 为用户 ID，value 为 WaitingParticipant 的 JSON。
type RedisWaitingRoomRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisWaitingRoomRepository 创建 RedisWaitingRoomRepository 实例
func NewRedisWaitingRoomRepository(client *redis.Client, keyPrefix string) *RedisWaitingRoomRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisWaitingRoomRepository")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisWaitingRoomRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisWaitingRoomRepository) waitingKey(roomCode string) string {
	return fmt.Sprintf("%sroom:%s:waiting", r.keyPrefix, roomCode)
}

func userField(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// Add 使用 HSETNX 写入，已在等候室中的用户不会被覆盖
func (r *RedisWaitingRoomRepository) Add(ctx context.Context, roomCode string, w domain.WaitingParticipant) (bool, error) {
	key := r.waitingKey(roomCode)
	payload, err := json.Marshal(w)
	if err != nil {
		return false, fmt.Errorf("redis: failed to marshal waiting participant %d: %w", w.UserID, err)
	}

	pipe := r.client.TxPipeline()
	setCmd := pipe.HSetNX(ctx, key, userField(w.UserID), payload)
	pipe.Expire(ctx, key, waitingTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: failed to add user %d to waiting room %s: %w", w.UserID, key, err)
	}
	return setCmd.Val(), nil
}

// Get 查找等候中的用户
func (r *RedisWaitingRoomRepository) Get(ctx context.Context, roomCode string, userID uint) (*domain.WaitingParticipant, error) {
	key := r.waitingKey(roomCode)
	raw, err := r.client.HGet(ctx, key, userField(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrWaitingNotFound
		}
		return nil, fmt.Errorf("redis: failed to get waiting user %d from %s: %w", userID, key, err)
	}
	var w domain.WaitingParticipant
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal waiting user %d from %s: %w", userID, key, err)
	}
	return &w, nil
}

// Remove 将用户移出等候室
func (r *RedisWaitingRoomRepository) Remove(ctx context.Context, roomCode string, userID uint) error {
	key := r.waitingKey(roomCode)
	n, err := r.client.HDel(ctx, key, userField(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis: failed to remove waiting user %d from %s: %w", userID, key, err)
	}
	if n == 0 {
		return repository.ErrWaitingNotFound
	}
	return nil
}

// List 返回按申请时间排序的等候列表。无法解析的条目会被跳过并记录日志。
func (r *RedisWaitingRoomRepository) List(ctx context.Context, roomCode string) ([]domain.WaitingParticipant, error) {
	key := r.waitingKey(roomCode)
	entries, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to list waiting room %s: %w", key, err)
	}

	list := make([]domain.WaitingParticipant, 0, len(entries))
	for field, raw := range entries {
		var w domain.WaitingParticipant
		if err := json.Unmarshal([]byte(raw), &w); err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "field": field}).WithError(err).Warn("redis: skipping malformed waiting entry")
			continue
		}
		list = append(list, w)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].RequestedAt.Equal(list[j].RequestedAt) {
			return list[i].UserID < list[j].UserID
		}
		return list[i].RequestedAt.Before(list[j].RequestedAt)
	})
	return list, nil
}

// Clear 删除整个等候室
func (r *RedisWaitingRoomRepository) Clear(ctx context.Context, roomCode string) error {
	key := r.waitingKey(roomCode)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: failed to clear waiting room %s: %w", key, err)
	}
	return nil
}
