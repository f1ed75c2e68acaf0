package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"course-market/internal/shared/cache"
	"course-market/internal/shared/model"
)

// keyTopClasses 排行榜缓存键
const keyTopClasses = "classes:top"

// 确保 Store 实现了 Cache 接口
var _ cache.Cache = (*Store)(nil)

func (s *Store) GetTopClasses(ctx context.Context) ([]*model.Class, bool, error) {
	data, err := s.client.Get(ctx, keyTopClasses).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var classes []*model.Class
	if err := json.Unmarshal(data, &classes); err != nil {
		// 缓存内容损坏按 miss 处理，下次 Set 覆盖
		return nil, false, nil
	}
	return classes, true, nil
}

func (s *Store) SetTopClasses(ctx context.Context, classes []*model.Class) error {
	data, err := json.Marshal(classes)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyTopClasses, data, s.ttl).Err()
}

func (s *Store) InvalidateTopClasses(ctx context.Context) error {
	return s.client.Del(ctx, keyTopClasses).Err()
}
