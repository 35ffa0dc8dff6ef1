package xcache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// entry 单个缓存条目
type entry struct {
	value     []byte
	createdAt time.Time
	ttl       time.Duration
}

// expired 条目有效当且仅当 now - createdAt <= ttl。
func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// table 条目存储，由 memoryCache 的互斥锁保护，自身不加锁。
type table interface {
	get(key string) (*entry, bool)
	peek(key string) (*entry, bool)
	add(key string, e *entry) (evicted bool)
	remove(key string) bool
	keys() []string
	len() int
	purge()
}

// mapTable 无上限存储
type mapTable map[string]*entry

func (t mapTable) get(key string) (*entry, bool) {
	e, ok := t[key]
	return e, ok
}

func (t mapTable) peek(key string) (*entry, bool) { return t.get(key) }

func (t mapTable) add(key string, e *entry) bool {
	t[key] = e
	return false
}

func (t mapTable) remove(key string) bool {
	if _, ok := t[key]; !ok {
		return false
	}
	delete(t, key)
	return true
}

func (t mapTable) keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	return keys
}

func (t mapTable) len() int { return len(t) }

func (t mapTable) purge() { clear(t) }

// lruTable 有上限存储，超出容量时淘汰最久未访问的条目。
type lruTable struct {
	lru *simplelru.LRU[string, *entry]
}

func newLRUTable(size int) (*lruTable, error) {
	l, err := simplelru.NewLRU[string, *entry](size, nil)
	if err != nil {
		return nil, err
	}
	return &lruTable{lru: l}, nil
}

func (t *lruTable) get(key string) (*entry, bool) { return t.lru.Get(key) }

// peek 不更新访问顺序
func (t *lruTable) peek(key string) (*entry, bool) { return t.lru.Peek(key) }

func (t *lruTable) add(key string, e *entry) bool { return t.lru.Add(key, e) }

func (t *lruTable) remove(key string) bool { return t.lru.Remove(key) }

// keys 不更新访问顺序
func (t *lruTable) keys() []string { return t.lru.Keys() }

func (t *lruTable) len() int { return t.lru.Len() }

func (t *lruTable) purge() { t.lru.Purge() }
