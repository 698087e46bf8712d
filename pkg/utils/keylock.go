package utils

import "sync"

// ==================== KeyedLock 按键互斥锁 ====================

// KeyedLock 按业务键互斥
// 同一远端实体（pid / vid / cjOrderId）上的操作必须串行，
// 不同实体之间完全独立，不加全局锁
type KeyedLock struct {
	locks sync.Map // key -> *sync.Mutex
}

// NewKeyedLock 创建按键锁
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{}
}

// Lock 锁定指定 key，返回解锁函数
//
// 使用示例:
//
//	unlock := lock.Lock("pid:" + pid)
//	defer unlock()
func (k *KeyedLock) Lock(key string) func() {
	actual, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// TryLock 尝试锁定，失败立即返回
func (k *KeyedLock) TryLock(key string) (func(), bool) {
	actual, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, false
	}
	return mu.Unlock, true
}
