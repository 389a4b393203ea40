// Package lock 提供按 key 串行化的进程内互斥锁。
// 每个聚合实例（订单、竞拍、拼单、信誉记录）的全部写操作必须在同一把锁下执行。
package lock

import "sync"

// Keyed 按 key 管理的一组互斥锁，锁在无人持有时自动回收。
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyed 创建 Keyed 实例。
func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// Lock 锁定指定 key，返回对应的解锁函数。
func (k *Keyed) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
