package rendezvous

import "errors"

var (
	// ErrBusy 引擎已在运行
	ErrBusy = errors.New("rendezvous: already running")

	// ErrNilLink 未提供链路
	ErrNilLink = errors.New("rendezvous: nil link")

	// ErrInvalidSource 帧来源是哨兵地址
	ErrInvalidSource = errors.New("rendezvous: invalid source address")

	// errRunComplete 单播次数用完，本轮正常结束
	errRunComplete = errors.New("rendezvous: run complete")
)
