package config

import (
	"errors"
	"fmt"
	"time"
)

// 帧长度范围
const (
	minSendLen = 10
	maxSendLen = 250
)

// RendezvousConfig 汇合引擎配置
type RendezvousConfig struct {
	// SendCount 进入单播后的发送次数，用完即结束本轮
	SendCount int `json:"send_count"`

	// SendDelay 两次发送之间的间隔
	SendDelay Duration `json:"send_delay"`

	// SendLen 帧总长度（含 10 字节帧头）
	SendLen int `json:"send_len"`

	// QueueSize 事件队列容量
	QueueSize int `json:"queue_size"`

	// OverflowPolicy 队列满时回调的行为："drop" 或 "block"
	OverflowPolicy string `json:"overflow_policy"`

	// FillRandomPayload 用随机字节填充负载
	FillRandomPayload bool `json:"fill_random_payload"`

	// TrackPeers 为发现的对端在连接表中分配条目
	TrackPeers bool `json:"track_peers"`

	// PeerDataLen 连接表条目关联数据长度
	PeerDataLen int `json:"peer_data_len,omitempty"`

	// SightingsSize 对端观察记录缓存大小
	SightingsSize int `json:"sightings_size"`
}

// DefaultRendezvousConfig 默认汇合配置
func DefaultRendezvousConfig() RendezvousConfig {
	return RendezvousConfig{
		SendCount:      100,
		SendDelay:      Duration(time.Second),
		SendLen:        10,
		QueueSize:      6,
		OverflowPolicy: "drop",
		TrackPeers:     true,
		SightingsSize:  32,
	}
}

// Validate 验证汇合配置
func (c RendezvousConfig) Validate() error {
	if c.SendCount <= 0 {
		return errors.New("rendezvous: send count must be positive")
	}
	if c.SendDelay < 0 {
		return errors.New("rendezvous: send delay must be non-negative")
	}
	if c.SendLen < minSendLen || c.SendLen > maxSendLen {
		return fmt.Errorf("rendezvous: send len %d out of range [%d,%d]", c.SendLen, minSendLen, maxSendLen)
	}
	if c.QueueSize <= 0 {
		return errors.New("rendezvous: queue size must be positive")
	}
	switch c.OverflowPolicy {
	case "", "drop", "block":
	default:
		return fmt.Errorf("rendezvous: unknown overflow policy %q", c.OverflowPolicy)
	}
	if c.PeerDataLen < 0 {
		return errors.New("rendezvous: peer data len must be non-negative")
	}
	if c.SightingsSize <= 0 {
		return errors.New("rendezvous: sightings size must be positive")
	}
	return nil
}

// WithSendCount 设置单播发送次数
func (c RendezvousConfig) WithSendCount(n int) RendezvousConfig {
	c.SendCount = n
	return c
}

// WithSendDelay 设置发送间隔
func (c RendezvousConfig) WithSendDelay(d time.Duration) RendezvousConfig {
	c.SendDelay = Duration(d)
	return c
}

// WithSendLen 设置帧长度
func (c RendezvousConfig) WithSendLen(n int) RendezvousConfig {
	c.SendLen = n
	return c
}

// WithQueue 设置事件队列容量与溢出策略
func (c RendezvousConfig) WithQueue(size int, policy string) RendezvousConfig {
	c.QueueSize = size
	c.OverflowPolicy = policy
	return c
}
