package radio

import "errors"

// 链路层错误
var (
	// ErrNotInitialized 链路未初始化
	ErrNotInitialized = errors.New("link: not initialized")

	// ErrPeerNotFound 目的地址不在对端表中
	ErrPeerNotFound = errors.New("link: peer not found")

	// ErrPeerListFull 对端表已满
	ErrPeerListFull = errors.New("link: peer list full")

	// ErrInvalidPeer 对端地址无效（全 0）
	ErrInvalidPeer = errors.New("link: invalid peer address")

	// ErrInvalidChannel 信道超出范围
	ErrInvalidChannel = errors.New("link: invalid channel")

	// ErrFrameTooLarge 帧超过链路上限
	ErrFrameTooLarge = errors.New("link: frame too large")

	// ErrTxBusy 发送队列已满
	ErrTxBusy = errors.New("link: tx queue full")
)
