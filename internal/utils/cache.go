package utils

import (
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Store 缓存后端，实现必须并发安全
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Len() int
}

// MemoryStore 基于 go-cache 的不限条数缓存，过期条目由后台定时清理
type MemoryStore struct {
	c *cache.Cache
}

// NewMemoryStore 默认过期时间5分钟，清理间隔10分钟
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(5*time.Minute, 10*time.Minute)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) {
	s.c.Set(key, value, ttl)
}

func (s *MemoryStore) Len() int {
	return s.c.ItemCount()
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// LRUStore 限制最大条数的缓存，超出时淘汰最久未使用的条目
type LRUStore struct {
	storage *lru.Cache[string, CacheItem[[]byte]]
}

// NewLRUStore size 是最大缓存条数（如 1000）
func NewLRUStore(size int) (*LRUStore, error) {
	// lru.New 是线程安全的
	c, err := lru.New[string, CacheItem[[]byte]](size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{storage: c}, nil
}

func (s *LRUStore) Get(key string) ([]byte, bool) {
	item, ok := s.storage.Get(key)
	if !ok {
		return nil, false
	}

	// 检查是否过期
	if time.Now().After(item.ExpiredAt) {
		s.storage.Remove(key)
		return nil, false
	}

	return item.Value, true
}

func (s *LRUStore) Set(key string, value []byte, ttl time.Duration) {
	s.storage.Add(key, CacheItem[[]byte]{
		Value:     value,
		ExpiredAt: time.Now().Add(ttl),
	})
}

func (s *LRUStore) Len() int {
	return s.storage.Len()
}

// NewStore maxEntries 为 0 时返回不限条数的 MemoryStore
func NewStore(maxEntries int) (Store, error) {
	if maxEntries <= 0 {
		return NewMemoryStore(), nil
	}
	return NewLRUStore(maxEntries)
}

// ResponseCache 上游响应缓存。同一 key 的并发未命中只会触发一次 producer。
type ResponseCache struct {
	store Store
	group singleflight.Group
}

func NewResponseCache(store Store) *ResponseCache {
	return &ResponseCache{store: store}
}

// Cached 命中则直接返回；否则调用 producer 并在成功时按 ttl 写入缓存。
// producer 出错时不缓存。第二个返回值表示是否命中。
func (c *ResponseCache) Cached(key string, ttl time.Duration, producer func() ([]byte, error)) ([]byte, bool, error) {
	if v, ok := c.store.Get(key); ok {
		return v, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		body, err := producer()
		if err != nil {
			return nil, err
		}
		c.store.Set(key, body, ttl)
		return body, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

func (c *ResponseCache) Len() int {
	return c.store.Len()
}

// CacheKey 路由 + 排序后的查询串，不同分页/筛选条件互不冲突
func CacheKey(route string, query url.Values) string {
	if len(query) == 0 {
		return route
	}
	return route + "?" + query.Encode()
}
