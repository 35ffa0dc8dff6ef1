package friends

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

//go:generate mockgen -source=store.go -destination=store_mock_test.go -package=friends

// Store 好友关系持久化接口。
type Store interface {
	// List 返回 userID 的全部好友，按名称排序。
	List(ctx context.Context, userID string) ([]Friend, error)

	// Get 不存在时返回 ErrNotFound。
	Get(ctx context.Context, userID, friendID string) (Friend, error)

	// Add 写入新关系并返回带 CreatedAt 的记录，已存在时返回 ErrConflict。
	Add(ctx context.Context, f Friend) (Friend, error)

	// Remove 不存在时返回 ErrNotFound。
	Remove(ctx context.Context, userID, friendID string) error
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore 进程内 Store，用于未配置数据库时和测试。
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]map[string]Friend
	now   func() time.Time
}

// NewMemoryStore 创建空的内存 Store。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string]Friend), now: time.Now}
}

func (s *MemoryStore) List(_ context.Context, userID string) ([]Friend, error) {
	s.mu.RLock()
	out := make([]Friend, 0, len(s.users[userID]))
	for _, f := range s.users[userID] {
		out = append(out, f)
	}
	s.mu.RUnlock()

	sortFriends(out)
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, userID, friendID string) (Friend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.users[userID][friendID]
	if !ok {
		return Friend{}, ErrNotFound
	}
	return f, nil
}

func (s *MemoryStore) Add(_ context.Context, f Friend) (Friend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byFriend, ok := s.users[f.UserID]
	if !ok {
		byFriend = make(map[string]Friend)
		s.users[f.UserID] = byFriend
	}
	if _, exists := byFriend[f.FriendID]; exists {
		return Friend{}, ErrConflict
	}
	f.CreatedAt = s.now().UTC()
	byFriend[f.FriendID] = f
	return f, nil
}

func (s *MemoryStore) Remove(_ context.Context, userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID][friendID]; !ok {
		return ErrNotFound
	}
	delete(s.users[userID], friendID)
	if len(s.users[userID]) == 0 {
		delete(s.users, userID)
	}
	return nil
}

func sortFriends(fs []Friend) {
	slices.SortFunc(fs, func(a, b Friend) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.FriendID, b.FriendID))
	})
}
