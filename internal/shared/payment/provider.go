// Package payment 支付服务商抽象
//
// 金额一律以最小货币单位（美分）传递，换算发生在调用方。
// 服务商的托管收银台/支付意图 API 视为外部协作方，本包只封装
// 「创建支付意图、拿回 client secret」这一步。
package payment

import "context"

// Intent 支付意图
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Provider 支付服务商接口
type Provider interface {
	// CreateIntent 为指定金额创建支付意图
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error)
}
