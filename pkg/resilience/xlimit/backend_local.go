package xlimit

import (
	"context"
	"sync"
	"time"
)

var _ Backend = (*localBackend)(nil)

// windowRecord 单个客户端的窗口状态
type windowRecord struct {
	count     int
	expiresAt time.Time
}

// localBackend 进程内固定窗口计数。
// 整个读改写序列在互斥锁内完成，并发递增不会丢失。
type localBackend struct {
	mu      sync.Mutex
	records map[string]*windowRecord
	now     func() time.Time
}

func newLocalBackend(now func() time.Time) *localBackend {
	return &localBackend{
		records: make(map[string]*windowRecord),
		now:     now,
	}
}

func (b *localBackend) Check(_ context.Context, key string, rule Rule) (CheckResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	var res CheckResult

	rec, ok := b.records[key]
	switch {
	case ok && rec.expiresAt.After(now) && rec.count+1 > rule.MaxRequests:
		res = CheckResult{
			Allowed:    false,
			Count:      rec.count,
			ResetAt:    rec.expiresAt,
			RetryAfter: rec.expiresAt.Sub(now),
		}
	case ok && rec.expiresAt.After(now):
		rec.count++
		res = CheckResult{Allowed: true, Count: rec.count, ResetAt: rec.expiresAt}
	default:
		rec = &windowRecord{count: 1, expiresAt: now.Add(rule.Window)}
		b.records[key] = rec
		res = CheckResult{Allowed: true, Count: 1, ResetAt: rec.expiresAt}
	}

	b.sweep(now.Add(-rule.Window))
	return res, nil
}

// sweep 删除 expiresAt 早于 cutoff 的记录。
// 每次 Check 全表遍历，记录数大时开销线性增长。
func (b *localBackend) sweep(cutoff time.Time) {
	for k, r := range b.records {
		if r.expiresAt.Before(cutoff) {
			delete(b.records, k)
		}
	}
}

func (b *localBackend) Query(_ context.Context, key string) (int, time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.records[key]
	if !ok || !rec.expiresAt.After(b.now()) {
		return 0, time.Time{}, nil
	}
	return rec.count, rec.expiresAt, nil
}

func (b *localBackend) Reset(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.records, key)
	b.mu.Unlock()
	return nil
}

func (b *localBackend) Close() error {
	b.mu.Lock()
	clear(b.records)
	b.mu.Unlock()
	return nil
}

func (b *localBackend) Type() string { return "local" }

// size 当前记录数
func (b *localBackend) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
