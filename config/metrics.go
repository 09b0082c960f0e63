package config

import (
	"errors"
	"time"
)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enable 启用 Prometheus 指标
	Enable bool `json:"enable"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace"`

	// ListenAddr 诊断服务（/metrics、/debug/introspect）监听地址，空表示不启动
	ListenAddr string `json:"listen_addr,omitempty"`

	// RateWindow 速率统计窗口
	RateWindow Duration `json:"rate_window"`
}

// DefaultMetricsConfig 默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enable:     true,
		Namespace:  "rawlink",
		RateWindow: Duration(10 * time.Second),
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enable && c.Namespace == "" {
		return errors.New("metrics: namespace required")
	}
	if c.RateWindow <= 0 {
		return errors.New("metrics: rate window must be positive")
	}
	return nil
}
