package friends

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/omeyang/hisab/pkg/observability/xlog"
	"github.com/omeyang/hisab/pkg/storage/xcache"
)

// DefaultCacheTTL 好友数据的缓存有效期，与响应头 max-age 保持一致。
const DefaultCacheTTL = 30 * time.Second

// Service 在 Store 之上提供 cache-aside 读取与写后失效。
// 缓存故障只记录日志，不影响读写结果。
//
// 读取期间若本实例发生过失效，读到的数据不回填缓存。
// 多实例共享 Redis 时，其他实例的写入仍可能让旧数据存活至多 ttl。
type Service struct {
	store  Store
	cache  xcache.Cache
	lists  *xcache.Typed[[]Friend]
	items  *xcache.Typed[Friend]
	ttl    time.Duration
	logger xlog.Logger

	// gen 每次失效递增。回填持读锁比较，失效持写锁递增
	mu  sync.RWMutex
	gen uint64
}

// NewService 创建 Service，ttl <= 0 时使用 DefaultCacheTTL。
func NewService(store Store, cache xcache.Cache, ttl time.Duration, logger xlog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = xlog.Discard()
	}
	return &Service{
		store:  store,
		cache:  cache,
		lists:  xcache.NewTyped[[]Friend](cache),
		items:  xcache.NewTyped[Friend](cache),
		ttl:    ttl,
		logger: logger,
	}
}

func userPrefix(userID string) string { return "friends:" + userID + ":" }

func listKey(userID string) string { return userPrefix(userID) + "list" }

func itemKey(userID, friendID string) string { return userPrefix(userID) + "item:" + friendID }

// List 返回用户的好友列表。
func (s *Service) List(ctx context.Context, userID string) ([]Friend, error) {
	key := listKey(userID)
	if fs, ok, err := s.lists.Get(ctx, key); err != nil {
		s.logger.Warn(ctx, "friends cache read failed", slog.String("key", key), xlog.Err(err))
	} else if ok {
		return fs, nil
	}

	gen := s.generation()
	fs, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, gen, key, func() error { return s.lists.Set(ctx, key, fs, s.ttl) })
	return fs, nil
}

// Get 返回单条好友关系。
func (s *Service) Get(ctx context.Context, userID, friendID string) (Friend, error) {
	key := itemKey(userID, friendID)
	if f, ok, err := s.items.Get(ctx, key); err != nil {
		s.logger.Warn(ctx, "friends cache read failed", slog.String("key", key), xlog.Err(err))
	} else if ok {
		return f, nil
	}

	gen := s.generation()
	f, err := s.store.Get(ctx, userID, friendID)
	if err != nil {
		return Friend{}, err
	}
	s.fill(ctx, gen, key, func() error { return s.items.Set(ctx, key, f, s.ttl) })
	return f, nil
}

// Add 校验并写入新关系，成功后失效该用户缓存。
func (s *Service) Add(ctx context.Context, userID string, req AddRequest) (Friend, error) {
	f, err := req.normalize(userID)
	if err != nil {
		return Friend{}, err
	}
	f, err = s.store.Add(ctx, f)
	if err != nil {
		return Friend{}, err
	}
	s.invalidate(ctx, userID)
	return f, nil
}

// Remove 删除关系，成功后失效该用户缓存。
func (s *Service) Remove(ctx context.Context, userID, friendID string) error {
	if err := s.store.Remove(ctx, userID, friendID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// fill 仅在读取期间没有发生失效时写入缓存。
func (s *Service) fill(ctx context.Context, gen uint64, key string, set func() error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen != gen {
		s.logger.Debug(ctx, "friends cache fill skipped after concurrent invalidation", slog.String("key", key))
		return
	}
	if err := set(); err != nil {
		s.logger.Warn(ctx, "friends cache write failed", slog.String("key", key), xlog.Err(err))
	}
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()

	n, err := s.cache.ClearByPattern(ctx, userPrefix(userID))
	if err != nil {
		s.logger.Warn(ctx, "friends cache invalidation failed", slog.String("user_id", userID), xlog.Err(err))
		return
	}
	s.logger.Debug(ctx, "friends cache invalidated", slog.String("user_id", userID), slog.Int("removed", n))
}
