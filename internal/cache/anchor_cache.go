package cache

import (
	"context"
	"sync"
	"time"

	"wallet-cleanup-sol/internal/ledger"
)

// AnchorCache 缓存最近一次获取的 blockhash，超过 maxAge 视为过期
type AnchorCache struct {
	mu        sync.RWMutex
	anchor    ledger.Anchor
	fetchedAt time.Time
	maxAge    time.Duration
	now       func() time.Time
}

func NewAnchorCache(maxAge time.Duration) *AnchorCache {
	return &AnchorCache{
		maxAge: maxAge,
		now:    time.Now,
	}
}

// WithClock 替换时间源，仅用于测试
func (c *AnchorCache) WithClock(now func() time.Time) *AnchorCache {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Seed 预置一个外部获取的 anchor，视为当前时刻获取
func (c *AnchorCache) Seed(anchor ledger.Anchor) {
	c.Set(anchor)
}

func (c *AnchorCache) Set(anchor ledger.Anchor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchor = anchor
	c.fetchedAt = c.now()
}

// Get 返回当前缓存值，ok=false 表示从未设置
func (c *AnchorCache) Get() (ledger.Anchor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.anchor, !c.fetchedAt.IsZero()
}

// IsStale 纯判断：未设置或 now - fetchedAt > maxAge
func (c *AnchorCache) IsStale(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.fetchedAt.IsZero() {
		return true
	}
	return now.Sub(c.fetchedAt) > c.maxAge
}

// GetOrRefresh 过期时调用 fetch 刷新；刷新失败不会覆盖旧值
func (c *AnchorCache) GetOrRefresh(ctx context.Context, fetch func(context.Context) (ledger.Anchor, error)) (ledger.Anchor, bool, error) {
	c.mu.RLock()
	now := c.now
	c.mu.RUnlock()

	if !c.IsStale(now()) {
		anchor, _ := c.Get()
		return anchor, false, nil
	}

	anchor, err := fetch(ctx)
	if err != nil {
		return ledger.Anchor{}, false, err
	}
	c.Set(anchor)
	return anchor, true, nil
}
