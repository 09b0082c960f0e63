package rawlink

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-rawlink/config"
	"github.com/dep2p/go-rawlink/internal/app"
	"github.com/dep2p/go-rawlink/internal/core/conntable"
	"github.com/dep2p/go-rawlink/internal/core/metrics"
	"github.com/dep2p/go-rawlink/internal/core/rendezvous"
	"github.com/dep2p/go-rawlink/internal/debug/introspect"
	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/lib/log"
	"github.com/dep2p/go-rawlink/pkg/types"
)

var logger = log.Logger("rawlink")

// ════════════════════════════════════════════════════════════════════════════
//                              节点状态
// ════════════════════════════════════════════════════════════════════════════

// NodeState 节点状态
type NodeState int

const (
	// StateIdle 已创建，未启动
	StateIdle NodeState = iota

	// StateRunning 运行中
	StateRunning

	// StateStopped 已停止（不可重启）
	StateStopped
)

// String 返回状态的字符串表示
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// closeTimeout Close 使用的停止超时
const closeTimeout = 10 * time.Second

// ════════════════════════════════════════════════════════════════════════════
//                              Node
// ════════════════════════════════════════════════════════════════════════════

// Node 汇合节点
//
// Node 持有一个 Fx 应用：Start 启动全部模块并开始一轮汇合，
// Stop 结束当前一轮并按依赖逆序停止模块。
type Node struct {
	mu    sync.Mutex
	cfg   *nodeConfig
	app   *fx.App
	state NodeState

	logCloser io.Closer

	// 由 Fx 注入
	engine     *rendezvous.Engine
	rendezvous interfaces.Rendezvous
	connTable  interfaces.ConnTable
	sessions   *conntable.Sessions
	link       interfaces.Link
	reporter   interfaces.Reporter
	prometheus *metrics.Prometheus
	introspect *introspect.Server
}

// New 创建节点（不启动）
//
// 示例：
//
//	node, err := rawlink.New(
//	    rawlink.WithConfig(cfg),
//	    rawlink.WithPreset("fast"),
//	)
func New(opts ...Option) (*Node, error) {
	cfg := newNodeConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	closer, err := app.SetupLogging(cfg.config.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	node := &Node{
		cfg:       cfg,
		logCloser: closer,
	}

	node.app, err = buildFxApp(cfg, node)
	if err == nil {
		err = node.app.Err()
	}
	if err != nil {
		node.closeLog()
		return nil, fmt.Errorf("build fx app: %w", err)
	}

	return node, nil
}

// Start 启动模块并开始一轮汇合
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrNodeClosed
	}

	if err := n.app.Start(ctx); err != nil {
		return fmt.Errorf("start fx app: %w", err)
	}

	if err := n.engine.Start(ctx); err != nil {
		stopErr := n.app.Stop(context.WithoutCancel(ctx))
		n.state = StateStopped
		n.closeLog()
		return multierr.Append(fmt.Errorf("start rendezvous: %w", err), stopErr)
	}

	n.state = StateRunning
	st := n.engine.Status()
	logger.Info("节点已启动",
		"mac", n.link.LocalMAC(),
		"channel", n.cfg.config.Link.Channel,
		"run", st.RunID,
		"magic", st.Magic)
	return nil
}

// Stop 结束当前一轮汇合并停止全部模块
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateIdle:
		return ErrNotStarted
	case StateStopped:
		return nil
	}

	n.state = StateStopped
	err := n.app.Stop(ctx)
	if err != nil {
		logger.Warn("停止节点出错", "err", err)
	} else {
		logger.Info("节点已停止")
	}
	return multierr.Append(err, n.closeLog())
}

// Close 停止节点并释放资源，可重复调用
func (n *Node) Close() error {
	n.mu.Lock()
	state := n.state
	if state != StateRunning {
		n.state = StateStopped
		err := n.closeLog()
		n.mu.Unlock()
		return err
	}
	n.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return n.Stop(ctx)
}

// Wait 等待当前一轮汇合结束，返回其结束原因
func (n *Node) Wait(ctx context.Context) error {
	if n.State() == StateIdle {
		return ErrNotStarted
	}
	return n.engine.Wait(ctx)
}

// closeLog 关闭日志文件，调用方持有锁或独占节点
func (n *Node) closeLog() error {
	if n.logCloser == nil {
		return nil
	}
	err := n.logCloser.Close()
	n.logCloser = nil
	return err
}

// ════════════════════════════════════════════════════════════════════════════
//                              访问器
// ════════════════════════════════════════════════════════════════════════════

// State 返回节点状态
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Config 返回节点使用的配置副本
func (n *Node) Config() *config.Config {
	return config.CloneConfig(n.cfg.config)
}

// Rendezvous 返回汇合引擎
func (n *Node) Rendezvous() interfaces.Rendezvous {
	return n.rendezvous
}

// Engine 返回汇合引擎的具体实现
func (n *Node) Engine() *rendezvous.Engine {
	return n.engine
}

// Status 返回汇合状态快照
func (n *Node) Status() types.RendezvousStatus {
	return n.engine.Status()
}

// ConnTable 返回连接表
func (n *Node) ConnTable() interfaces.ConnTable {
	return n.connTable
}

// Sessions 返回会话表
func (n *Node) Sessions() *conntable.Sessions {
	return n.sessions
}

// Link 返回链路
func (n *Node) Link() interfaces.Link {
	return n.link
}

// Reporter 返回指标上报器
func (n *Node) Reporter() interfaces.Reporter {
	return n.reporter
}

// Metrics 返回 Prometheus 指标，未启用时为 nil
func (n *Node) Metrics() *metrics.Prometheus {
	return n.prometheus
}

// IntrospectAddr 返回诊断服务监听地址，未启动时为空
func (n *Node) IntrospectAddr() string {
	if n.introspect == nil {
		return ""
	}
	return n.introspect.Addr()
}
