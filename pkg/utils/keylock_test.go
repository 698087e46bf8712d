package utils

import (
	"sync"
	"testing"
)

func TestKeyedLock_SerializesSameKey(t *testing.T) {
	lock := NewKeyedLock()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := lock.Lock("pid:P001")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 32 {
		t.Errorf("同键操作应串行无丢失: %d", counter)
	}
}

func TestKeyedLock_DifferentKeysDoNotBlock(t *testing.T) {
	lock := NewKeyedLock()

	unlockA := lock.Lock("pid:A")
	defer unlockA()

	// A 持锁时 B 必须能立即拿到
	if unlockB, ok := lock.TryLock("pid:B"); !ok {
		t.Fatal("不同键之间不应互相阻塞")
	} else {
		unlockB()
	}
}

func TestKeyedLock_TryLockHeldKey(t *testing.T) {
	lock := NewKeyedLock()

	unlock := lock.Lock("order:1")
	if _, ok := lock.TryLock("order:1"); ok {
		t.Error("持锁中的键 TryLock 应失败")
	}
	unlock()

	unlock2, ok := lock.TryLock("order:1")
	if !ok {
		t.Fatal("释放后 TryLock 应成功")
	}
	unlock2()
}
