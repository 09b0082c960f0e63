// Package interfaces 定义 go-rawlink 公共接口
//
// 本文件定义汇合引擎接口，对应 internal/core/rendezvous/ 实现。
package interfaces

import (
	"context"

	"github.com/dep2p/go-rawlink/pkg/types"
)

// Rendezvous 广播发现 + 单播汇合引擎
type Rendezvous interface {
	// Start 启动一轮汇合；已在运行时返回 busy 错误
	Start(ctx context.Context) error

	// Stop 请求退出（排在已入队事件之后），不等待
	Stop() error

	// Done 当前一轮结束时关闭；未启动时返回 nil
	Done() <-chan struct{}

	// Err 最近一轮的结束原因，nil 表示正常结束
	Err() error

	// Status 当前状态快照
	Status() types.RendezvousStatus

	// Sightings 最近观察到的对端
	Sightings() []types.PeerSighting
}
