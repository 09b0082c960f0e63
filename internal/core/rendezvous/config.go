package rendezvous

import (
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/internal/core/eventqueue"
	"github.com/dep2p/go-rawlink/internal/core/frame"
)

// Config 汇合引擎配置
type Config struct {
	// Channel 链路信道
	Channel uint8

	// SendCount 单播发送次数
	SendCount int

	// SendDelay 发送间隔
	SendDelay time.Duration

	// SendLen 帧总长度
	SendLen int

	// QueueSize 事件队列容量
	QueueSize int

	// Overflow 队列满时回调的行为
	Overflow eventqueue.Policy

	// FillRandomPayload 负载填充随机字节
	FillRandomPayload bool

	// TrackPeers 在连接表中为发现的对端分配条目
	TrackPeers bool

	// PeerDataLen 连接表条目数据长度
	PeerDataLen int

	// SightingsSize 对端观察缓存大小
	SightingsSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Channel:       1,
		SendCount:     100,
		SendDelay:     time.Second,
		SendLen:       frame.HeaderSize,
		QueueSize:     6,
		Overflow:      eventqueue.PolicyDrop,
		TrackPeers:    true,
		SightingsSize: 32,
	}
}

// ConfigFromUnified 从统一配置创建引擎配置
//
// 未知的溢出策略按 drop 处理（统一配置的 Validate 已拒绝它们）。
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}

	policy, err := eventqueue.ParsePolicy(cfg.Rendezvous.OverflowPolicy)
	if err != nil {
		policy = eventqueue.PolicyDrop
	}

	return Config{
		Channel:           cfg.Link.Channel,
		SendCount:         cfg.Rendezvous.SendCount,
		SendDelay:         cfg.Rendezvous.SendDelay.Duration(),
		SendLen:           cfg.Rendezvous.SendLen,
		QueueSize:         cfg.Rendezvous.QueueSize,
		Overflow:          policy,
		FillRandomPayload: cfg.Rendezvous.FillRandomPayload,
		TrackPeers:        cfg.Rendezvous.TrackPeers,
		PeerDataLen:       cfg.Rendezvous.PeerDataLen,
		SightingsSize:     cfg.Rendezvous.SightingsSize,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.SendCount <= 0 {
		return errors.New("rendezvous: send count must be positive")
	}
	if c.SendDelay < 0 {
		return errors.New("rendezvous: send delay must be non-negative")
	}
	if c.SendLen < frame.HeaderSize || c.SendLen > frame.MaxFrameSize {
		return fmt.Errorf("rendezvous: send len %d out of range [%d,%d]",
			c.SendLen, frame.HeaderSize, frame.MaxFrameSize)
	}
	if c.QueueSize <= 0 {
		return errors.New("rendezvous: queue size must be positive")
	}
	if c.SightingsSize <= 0 {
		return errors.New("rendezvous: sightings size must be positive")
	}
	return nil
}
