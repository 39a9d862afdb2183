// Package registry 维护 "连接 -> 房间" 的映射，是 "当前谁在线可达" 的唯一来源。
package registry

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry 是连接注册表。网关只依赖这个接口，
// 多进程部署可以换成共享存储实现而不改动协议逻辑。
type Registry interface {
	// Attach 将连接挂载到房间；已挂载在其他房间时直接覆盖。
	Attach(connID string, userID uint, roomCode string)
	// Detach 移除连接，返回它原先挂载的房间。
	Detach(connID string) (roomCode string, ok bool)
	// RoomOf 返回连接当前挂载的房间。
	RoomOf(connID string) (roomCode string, ok bool)
	// RoomsOf 返回该用户任一连接所在的房间 (去重，排序)。
	RoomsOf(userID uint) []string
	// Rooms 返回所有至少挂载了一个连接的房间 (去重，排序)。
	Rooms() []string
}

type entry struct {
	userID   uint
	roomCode string
}

// MemoryRegistry 是进程内的 Registry 实现，生命周期与进程相同。
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryRegistry 创建空的 MemoryRegistry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]entry)}
}

func (r *MemoryRegistry) Attach(connID string, userID uint, roomCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[connID] = entry{userID: userID, roomCode: roomCode}
	logrus.WithFields(logrus.Fields{"conn_id": connID, "user_id": userID, "room_code": roomCode}).Debug("registry: attached")
}

func (r *MemoryRegistry) Detach(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connID]
	if !ok {
		return "", false
	}
	delete(r.entries, connID)
	logrus.WithFields(logrus.Fields{"conn_id": connID, "room_code": e.roomCode}).Debug("registry: detached")
	return e.roomCode, true
}

func (r *MemoryRegistry) RoomOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[connID]
	return e.roomCode, ok
}

func (r *MemoryRegistry) RoomsOf(userID uint) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{})
	for _, e := range r.entries {
		if e.userID == userID {
			set[e.roomCode] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func (r *MemoryRegistry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{})
	for _, e := range r.entries {
		set[e.roomCode] = struct{}{}
	}
	return sortedKeys(set)
}

// Len 返回已挂载的连接数
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var _ Registry = (*MemoryRegistry)(nil)
