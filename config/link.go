package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/dep2p/go-rawlink/pkg/types"
)

// 链路实现
const (
	// LinkDriverMem 进程内模拟介质
	LinkDriverMem = "mem"
	// LinkDriverUDP IPv4 组播
	LinkDriverUDP = "udp"
)

// LinkConfig 链路配置
type LinkConfig struct {
	// Driver 链路实现："mem" 或 "udp"
	Driver string `json:"driver"`

	// Channel 信道（1-14）
	Channel uint8 `json:"channel"`

	// MAC 本地地址，空表示随机生成
	MAC string `json:"mac,omitempty"`

	// MaxPeers 链路对端表容量
	MaxPeers int `json:"max_peers"`

	// UDP 组播链路配置
	UDP UDPLinkConfig `json:"udp"`

	// Mem 模拟介质配置
	Mem MemLinkConfig `json:"mem"`
}

// UDPLinkConfig 组播链路配置
type UDPLinkConfig struct {
	// Group 组播组 ip:port
	Group string `json:"group"`

	// Interface 网卡名，空表示系统默认
	Interface string `json:"interface,omitempty"`

	// TTL 组播 TTL
	TTL int `json:"ttl"`

	// Loopback 接收本机组播
	Loopback bool `json:"loopback"`
}

// MemLinkConfig 模拟介质配置
type MemLinkConfig struct {
	// Latency 每帧空口时延
	Latency Duration `json:"latency,omitempty"`

	// LossRate 丢帧概率 [0,1)
	LossRate float64 `json:"loss_rate,omitempty"`
}

// DefaultLinkConfig 默认链路配置
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		Driver:   LinkDriverMem,
		Channel:  1,
		MaxPeers: 20,
		UDP: UDPLinkConfig{
			Group:    "239.82.76.1:47476",
			TTL:      1,
			Loopback: true,
		},
	}
}

// Validate 验证链路配置
func (c LinkConfig) Validate() error {
	switch c.Driver {
	case LinkDriverMem, LinkDriverUDP:
	default:
		return fmt.Errorf("link: unknown driver %q", c.Driver)
	}

	if c.Channel < 1 || c.Channel > 14 {
		return fmt.Errorf("link: channel %d out of range [1,14]", c.Channel)
	}

	if c.MaxPeers <= 0 {
		return errors.New("link: max peers must be positive")
	}

	if c.MAC != "" {
		mac, err := types.ParseMAC(c.MAC)
		if err != nil {
			return fmt.Errorf("link: %w", err)
		}
		if mac.IsSentinel() {
			return fmt.Errorf("link: mac %s is reserved", mac)
		}
	}

	if c.Driver == LinkDriverUDP {
		addr, err := net.ResolveUDPAddr("udp4", c.UDP.Group)
		if err != nil {
			return fmt.Errorf("link: udp group: %w", err)
		}
		if !addr.IP.IsMulticast() {
			return fmt.Errorf("link: udp group %s is not multicast", c.UDP.Group)
		}
		if c.UDP.TTL < 0 || c.UDP.TTL > 255 {
			return fmt.Errorf("link: udp ttl %d out of range", c.UDP.TTL)
		}
	}

	if c.Mem.Latency < 0 {
		return errors.New("link: mem latency must be non-negative")
	}
	if c.Mem.LossRate < 0 || c.Mem.LossRate >= 1 {
		return fmt.Errorf("link: mem loss rate %v out of range [0,1)", c.Mem.LossRate)
	}

	return nil
}

// LocalMAC 解析配置的本地地址，未配置时返回全 0
func (c LinkConfig) LocalMAC() (types.MAC, error) {
	if c.MAC == "" {
		return types.ZeroMAC, nil
	}
	return types.ParseMAC(c.MAC)
}

// WithDriver 设置链路实现
func (c LinkConfig) WithDriver(driver string) LinkConfig {
	c.Driver = driver
	return c
}

// WithChannel 设置信道
func (c LinkConfig) WithChannel(ch uint8) LinkConfig {
	c.Channel = ch
	return c
}

// WithMAC 设置本地地址
func (c LinkConfig) WithMAC(mac string) LinkConfig {
	c.MAC = mac
	return c
}

// WithUDPGroup 设置组播组与网卡
func (c LinkConfig) WithUDPGroup(group, iface string) LinkConfig {
	c.UDP.Group = group
	c.UDP.Interface = iface
	return c
}

// WithMemLatency 设置模拟空口时延
func (c LinkConfig) WithMemLatency(d time.Duration) LinkConfig {
	c.Mem.Latency = Duration(d)
	return c
}
