// Package cache 缓存层抽象接口
//
// 提供排行榜等热点读的缓存能力，当前由 Redis 实现。
// 缓存不可用时一律按 miss 处理，绝不让缓存故障影响主流程。
package cache

import (
	"context"

	"course-market/internal/shared/model"
)

// LeaderboardCache 课程排行榜缓存接口
type LeaderboardCache interface {
	// GetTopClasses 读取缓存的排行榜，第二个返回值表示是否命中
	GetTopClasses(ctx context.Context) ([]*model.Class, bool, error)
	SetTopClasses(ctx context.Context, classes []*model.Class) error
	// InvalidateTopClasses 课程数据变更后使排行榜失效
	InvalidateTopClasses(ctx context.Context) error
}

// Cache 缓存组合接口
type Cache interface {
	LeaderboardCache
	Close() error
}
