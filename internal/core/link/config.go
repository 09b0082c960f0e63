package link

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/internal/core/link/radio"
	"github.com/dep2p/go-rawlink/internal/core/link/udplink"
	"github.com/dep2p/go-rawlink/pkg/types"
)

// 链路实现名称
const (
	DriverMem = config.LinkDriverMem
	DriverUDP = config.LinkDriverUDP
)

// Config 链路选择配置
type Config struct {
	// Driver 链路实现
	Driver string

	// MAC 本地地址，全 0 表示随机生成
	MAC types.MAC

	// MaxPeers 对端表容量
	MaxPeers int

	// UDP 组播链路配置
	UDP udplink.Config

	// MemLatency 模拟介质时延
	MemLatency time.Duration

	// MemLossRate 模拟介质丢帧率
	MemLossRate float64
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Driver:   DriverMem,
		MaxPeers: radio.DefaultMaxPeers,
		UDP:      udplink.DefaultConfig(),
	}
}

// ConfigFromUnified 从统一配置创建链路配置
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return DefaultConfig(), nil
	}

	mac, err := cfg.Link.LocalMAC()
	if err != nil {
		return Config{}, fmt.Errorf("link: mac: %w", err)
	}

	udp := udplink.DefaultConfig()
	udp.Group = cfg.Link.UDP.Group
	udp.Interface = cfg.Link.UDP.Interface
	udp.TTL = cfg.Link.UDP.TTL
	udp.Loopback = cfg.Link.UDP.Loopback
	udp.MAC = mac
	udp.MaxPeers = cfg.Link.MaxPeers

	return Config{
		Driver:      cfg.Link.Driver,
		MAC:         mac,
		MaxPeers:    cfg.Link.MaxPeers,
		UDP:         udp,
		MemLatency:  cfg.Link.Mem.Latency.Duration(),
		MemLossRate: cfg.Link.Mem.LossRate,
	}, nil
}

// Validate 验证配置
func (c Config) Validate() error {
	switch c.Driver {
	case DriverMem:
		if c.MemLossRate < 0 || c.MemLossRate >= 1 {
			return fmt.Errorf("link: loss rate %v out of range [0,1)", c.MemLossRate)
		}
		return nil
	case DriverUDP:
		return c.UDP.Validate()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
}

// localMAC 返回配置的地址，未配置时随机生成本地管理地址
func (c Config) localMAC() types.MAC {
	if c.MAC.IsZero() {
		return types.LocalMAC(rand.Uint32())
	}
	return c.MAC
}
