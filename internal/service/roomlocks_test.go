package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomLocks_SerializesSameCode(t *testing.T) {
	locks := newRoomLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("AB12CD")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "同一房间码同一时刻只能有一个持有者")
	assert.Zero(t, locks.size(), "释放后条目应被回收")
}

func TestRoomLocks_DifferentCodesDoNotBlock(t *testing.T) {
	locks := newRoomLocks()
	unlockA := locks.lock("AAAAAA")
	done := make(chan struct{})
	go func() {
		unlockB := locks.lock("BBBBBB")
		unlockB()
		close(done)
	}()
	<-done
	assert.Equal(t, 1, locks.size())
	unlockA()
	assert.Zero(t, locks.size())
}
