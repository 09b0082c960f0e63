package rawlink

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/internal/core/link/memlink"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
)

// Option 节点选项
type Option func(*nodeConfig) error

// nodeConfig 节点构建参数
type nodeConfig struct {
	config     *config.Config
	link       interfaces.Link
	medium     *memlink.Medium
	registerer prometheus.Registerer
	fxOptions  []fx.Option
	fxLogging  bool
}

func newNodeConfig() *nodeConfig {
	return &nodeConfig{config: config.NewConfig()}
}

// WithConfig 使用完整配置
//
// 配置会被复制，之后对 cfg 的修改不影响节点。
// 与 WithPreset 组合时应放在前面。
func WithConfig(cfg *config.Config) Option {
	return func(c *nodeConfig) error {
		if cfg == nil {
			return ErrNilConfig
		}
		c.config = config.CloneConfig(cfg)
		return nil
	}
}

// WithPreset 应用预设（default / fast / lowpower）
func WithPreset(name string) Option {
	return func(c *nodeConfig) error {
		return config.ApplyPreset(c.config, name)
	}
}

// WithLink 使用调用方提供的链路
//
// 设置后不加载内置链路模块，link 配置段被忽略。
func WithLink(l interfaces.Link) Option {
	return func(c *nodeConfig) error {
		if l == nil {
			return errors.New("nil link")
		}
		c.link = l
		return nil
	}
}

// WithMedium 指定 mem 驱动挂接的共享介质
//
// 多个节点共用同一介质即可在进程内互相收发。
func WithMedium(m *memlink.Medium) Option {
	return func(c *nodeConfig) error {
		if m == nil {
			return errors.New("nil medium")
		}
		c.medium = m
		return nil
	}
}

// WithRegisterer 指定 Prometheus 注册器
//
// 未指定时使用私有 Registry。
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *nodeConfig) error {
		c.registerer = reg
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(c *nodeConfig) error {
		c.fxOptions = append(c.fxOptions, opts...)
		return nil
	}
}

// WithFxLogging 输出 Fx 容器事件日志，用于排查依赖注入问题
func WithFxLogging(enable bool) Option {
	return func(c *nodeConfig) error {
		c.fxLogging = enable
		return nil
	}
}
