package service

import "sync"

// roomLocks 是按房间码分片的互斥锁表。
// 条目带引用计数，最后一个持有者释放后从表中删除，表大小只与正在处理的房间数有关。
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

// lock 获取房间码对应的锁，返回释放函数
func (l *roomLocks) lock(code string) func() {
	l.mu.Lock()
	rl, ok := l.locks[code]
	if !ok {
		rl = &roomLock{}
		l.locks[code] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, code)
		}
		l.mu.Unlock()
	}
}

// size 返回当前表中的条目数 (测试用)
func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
