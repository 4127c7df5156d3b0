// Package feature 提供影片实时特征的获取与注入。
//
// 匹配引擎的打分公式只依赖类型权重与嵌入相似度；实时特征
// （曝光量、近况热度等）通过 EnrichNode 挂到 Item 上，供下游
// 解释工具与策略规则消费，不参与总分计算。
package feature

import (
	"context"
	"time"
)

// Client 是在线特征存储的客户端接口（遵循 DDD 原则，高内聚低耦合）。
//
// 默认实现基于 Feast Feature Store（见 FeastClient）；
// 也可以自行实现此接口对接其他特征服务。
type Client interface {
	// GetOnlineFeatures 获取在线特征（用于实时注入）
	//
	// 参数：
	//   - Features: 特征名称列表，例如 ["movie_stats:popularity", "movie_stats:impressions_7d"]
	//   - EntityRows: 实体行，例如 [{"movie_id": 1001}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表
	Features []string

	// EntityRows 实体行，例如 [{"movie_id": 1001}, {"movie_id": 1002}]
	EntityRows []map[string]interface{}

	// Project 项目名称（可选）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，每个元素对应一个实体行
	FeatureVectors []FeatureVector
}

// FeatureVector 特征向量
type FeatureVector struct {
	// Values 特征值，key 为特征名称
	Values map[string]interface{}

	// EntityRow 对应的实体行
	EntityRow map[string]interface{}
}

// ClientOption 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig 客户端配置
type ClientConfig struct {
	// Endpoint 服务端点
	Endpoint string

	// Project 项目名称
	Project string

	// Timeout 请求超时
	Timeout time.Duration

	// Auth 认证配置（可选）
	Auth *AuthConfig
}

// AuthConfig 认证配置
type AuthConfig struct {
	// Type 认证类型：static（静态 Token）
	Type string

	// Token 静态 Token
	Token string
}

// WithTimeout 设置请求超时
func WithTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.Timeout = d }
}

// WithStaticToken 设置静态 Token 认证
func WithStaticToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = &AuthConfig{Type: "static", Token: token}
	}
}
