// Package cache 缓存层抽象接口
//
// mock.go 提供用于测试和无 Redis 部署的 NoOp 实现
package cache

import (
	"context"

	"course-market/internal/shared/model"
)

// NoOpCache 空操作缓存：永远 miss，写入直接丢弃
type NoOpCache struct{}

// NewNoOpCache 创建 NoOpCache 实例
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetTopClasses(ctx context.Context) ([]*model.Class, bool, error) {
	return nil, false, nil
}

func (c *NoOpCache) SetTopClasses(ctx context.Context, classes []*model.Class) error {
	return nil
}

func (c *NoOpCache) InvalidateTopClasses(ctx context.Context) error {
	return nil
}

// Close 关闭缓存
func (c *NoOpCache) Close() error { return nil }

// 确保 NoOpCache 实现了 Cache 接口
var _ Cache = (*NoOpCache)(nil)
