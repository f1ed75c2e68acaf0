package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockProvider 测试用 Provider：不出网，本地生成意图
type MockProvider struct {
	// FailWith 非 nil 时 CreateIntent 直接返回该错误
	FailWith error

	// Created 记录所有创建过的意图金额
	Created []int64
}

// NewMockProvider 创建 MockProvider 实例
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// 确保 MockProvider 实现了 Provider 接口
var _ Provider = (*MockProvider)(nil)

func (p *MockProvider) CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error) {
	if p.FailWith != nil {
		return nil, p.FailWith
	}
	id := "pi_mock_" + uuid.NewString()
	p.Created = append(p.Created, amountMinor)
	return &Intent{ID: id, ClientSecret: fmt.Sprintf("%s_secret_%s", id, uuid.NewString())}, nil
}
