package config

import "errors"

// ConnTableConfig 连接表配置
type ConnTableConfig struct {
	// Capacity 槽位数
	Capacity int `json:"capacity"`

	// MaxDataLen 单个条目关联数据上限
	MaxDataLen int `json:"max_data_len"`
}

// DefaultConnTableConfig 默认连接表配置
func DefaultConnTableConfig() ConnTableConfig {
	return ConnTableConfig{
		Capacity:   4,
		MaxDataLen: 512,
	}
}

// Validate 验证连接表配置
func (c ConnTableConfig) Validate() error {
	if c.Capacity <= 0 {
		return errors.New("conn table: capacity must be positive")
	}
	if c.MaxDataLen < 0 {
		return errors.New("conn table: max data len must be non-negative")
	}
	return nil
}

// WithCapacity 设置容量
func (c ConnTableConfig) WithCapacity(n int) ConnTableConfig {
	c.Capacity = n
	return c
}
