package conntable

import (
	"errors"

	"github.com/dep2p/go-rawlink/config"
)

// Config 连接表配置
type Config struct {
	// Capacity 槽位数
	Capacity int

	// MaxDataLen 单个条目关联数据上限，0 表示不限制
	MaxDataLen int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Capacity:   4,
		MaxDataLen: 512,
	}
}

// ConfigFromUnified 从统一配置创建连接表配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Capacity:   cfg.ConnTable.Capacity,
		MaxDataLen: cfg.ConnTable.MaxDataLen,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return errors.New("conntable: capacity must be positive")
	}
	if c.MaxDataLen < 0 {
		return errors.New("conntable: max data len must be non-negative")
	}
	return nil
}
