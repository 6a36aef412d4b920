package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Cache 全局缓存实例（兜底信息流等低频结果）
var Cache *cache.Cache

// InitCache 初始化缓存
func InitCache() {
	// 默认过期时间1分钟，清理间隔5分钟
	Cache = cache.New(1*time.Minute, 5*time.Minute)
}

// CacheGet 获取缓存值
func CacheGet(key string) (interface{}, bool) {
	return Cache.Get(key)
}

// CacheSet 设置缓存值
func CacheSet(key string, value interface{}, duration time.Duration) {
	Cache.Set(key, value, duration)
}

// CacheDelete 删除缓存
func CacheDelete(key string) {
	Cache.Delete(key)
}

// CacheDeletePrefix 按前缀删除缓存（评分写入后失效该用户的兜底信息流）
func CacheDeletePrefix(prefix string) {
	for key := range Cache.Items() {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			Cache.Delete(key)
		}
	}
}

// CacheClear 清空所有缓存
func CacheClear() {
	Cache.Flush()
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// ResultCache 排序结果缓存封装（LRU + TTL）
type ResultCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewResultCache 初始化，size 是最大缓存条数（如 1000），ttl 是数据有效期（如 5分钟）
func NewResultCache[T any](size int, ttl time.Duration) *ResultCache[T] {
	// lru.New 是线程安全的
	c, _ := lru.New[string, CacheItem[T]](size)
	return &ResultCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入（LRU 中 Add 会自动处理 Update）
func (c *ResultCache[T]) Set(key string, value T) {
	item := CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	}
	c.storage.Add(key, item)
}

// Get 读取（带过期检查）
func (c *ResultCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	// 检查是否过期
	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key) // 过期删除
		return zero, false
	}

	return item.Value, true
}

// Delete 删除
func (c *ResultCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

// Clear 清空
func (c *ResultCache[T]) Clear() {
	c.storage.Purge()
}

// Len 当前条数
func (c *ResultCache[T]) Len() int {
	return c.storage.Len()
}
