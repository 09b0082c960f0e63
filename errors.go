package rawlink

import "errors"

var (
	// ErrNotStarted 节点未启动
	ErrNotStarted = errors.New("node not started")

	// ErrAlreadyStarted 节点已启动
	ErrAlreadyStarted = errors.New("node already started")

	// ErrNodeClosed 节点已关闭
	//
	// Fx 应用停止后不可重启，需要重新 New。
	ErrNodeClosed = errors.New("node closed")

	// ErrNilConfig 传入了 nil 配置
	ErrNilConfig = errors.New("nil config")
)
