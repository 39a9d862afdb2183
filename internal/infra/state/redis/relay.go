package redisstate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// FanoutMessage 是跨进程转发的房间广播帧
type FanoutMessage struct {
	Node        string          `json:"node"`
	RoomCode    string          `json:"roomCode"`
	ExcludeConn string          `json:"excludeConn,omitempty"`
	Frame       json.RawMessage `json:"frame"`
}

// DeliverFunc 把其他节点发来的帧投递给本地房间成员
type DeliverFunc func(roomCode, excludeConn string, frame []byte)

// Relay 通过 Redis Pub/Sub 在多个网关进程之间转发房间广播。
// 每个节点只投递来自其他节点的消息，本地广播由 Hub 直接完成。
type Relay struct {
	client  *redis.Client
	channel string
	nodeID  string

	mu     sync.Mutex
	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

// NewRelay 创建 Relay 实例
func NewRelay(client *redis.Client, keyPrefix, nodeID string) *Relay {
	if client == nil {
		panic("redis client cannot be nil for Relay")
	}
	if nodeID == "" {
		panic("node id cannot be empty for Relay")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Relay{client: client, channel: keyPrefix + "fanout", nodeID: nodeID}
}

// NodeID 返回当前节点标识
func (r *Relay) NodeID() string { return r.nodeID }

// Publish 将一帧房间广播发布到 fanout 频道
func (r *Relay) Publish(ctx context.Context, roomCode, excludeConn string, frame []byte) error {
	payload, err := json.Marshal(FanoutMessage{
		Node:        r.nodeID,
		RoomCode:    roomCode,
		ExcludeConn: excludeConn,
		Frame:       frame,
	})
	if err != nil {
		return fmt.Errorf("redis: failed to marshal fanout message for room %s: %w", roomCode, err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		logrus.WithFields(logrus.Fields{
			"channel":      r.channel,
			"room_code":    roomCode,
			"payload_size": len(payload),
		}).WithError(err).Error("Redis Publish failed")
		return fmt.Errorf("redis: failed to publish to channel %s: %w", r.channel, err)
	}
	return nil
}

// Start 订阅 fanout 频道，确认订阅成功后在后台循环投递消息，直到 Close。
func (r *Relay) Start(ctx context.Context, deliver DeliverFunc) error {
	if deliver == nil {
		return fmt.Errorf("relay: deliver func cannot be nil")
	}
	pubsub := r.client.Subscribe(ctx, r.channel)
	// 等待订阅确认，保证 Start 返回后发布的消息不会丢失
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("redis: failed to subscribe to %s: %w", r.channel, err)
	}

	r.mu.Lock()
	r.pubsub = pubsub
	r.mu.Unlock()

	r.wg.Add(1)
	go r.loop(pubsub.Channel(), deliver)
	logrus.WithFields(logrus.Fields{"channel": r.channel, "node": r.nodeID}).Info("Relay subscribed")
	return nil
}

func (r *Relay) loop(ch <-chan *redis.Message, deliver DeliverFunc) {
	defer r.wg.Done()
	for msg := range ch {
		var fm FanoutMessage
		if err := json.Unmarshal([]byte(msg.Payload), &fm); err != nil {
			logrus.WithField("channel", msg.Channel).WithError(err).Warn("Relay: dropping malformed fanout message")
			continue
		}
		if fm.Node == r.nodeID {
			continue
		}
		deliver(fm.RoomCode, fm.ExcludeConn, fm.Frame)
	}
}

// Close 取消订阅并等待投递循环退出
func (r *Relay) Close() error {
	r.mu.Lock()
	pubsub := r.pubsub
	r.pubsub = nil
	r.mu.Unlock()
	if pubsub == nil {
		return nil
	}
	err := pubsub.Close()
	r.wg.Wait()
	return err
}
