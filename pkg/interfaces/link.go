// Package interfaces 定义 go-rawlink 公共接口
//
// 本文件定义原始链路接口，对应 internal/core/link/ 下的实现。
package interfaces

import "github.com/dep2p/go-rawlink/pkg/types"

// PeerInfo 链路对端记录
//
// 对端记录归链路的对端表所有，调用方只负责构造并提交。
type PeerInfo struct {
	// MAC 对端地址
	MAC types.MAC

	// Channel 信道
	Channel uint8

	// Iface 本地接口
	Iface types.Iface

	// Encrypt 是否加密（仅作为标志传给链路）
	Encrypt bool
}

// RecvInfo 一次接收的帧
//
// Data 仅在回调期间有效，回调需要保留时必须拷贝。
type RecvInfo struct {
	Src  types.MAC
	Dst  types.MAC
	Data []byte
}

// SendCallback 发送完成回调
//
// 在链路的内部 goroutine 上调用，不得阻塞。
type SendCallback func(dst types.MAC, status types.SendStatus)

// RecvCallback 接收回调
//
// 在链路的内部 goroutine 上调用，不得阻塞。
type RecvCallback func(info RecvInfo)

// Link 原始链路接口
//
// 无连接、以 6 字节地址寻址的链路层。Send 是异步的，
// 完成结果通过 SendCallback 报告。
type Link interface {
	// Init 初始化链路
	Init() error

	// Deinit 释放链路并清空对端表
	Deinit() error

	// SetChannel 设置信道
	SetChannel(ch uint8) error

	// LocalMAC 本地地址
	LocalMAC() types.MAC

	// RegisterSendCallback 注册发送完成回调，nil 表示注销
	RegisterSendCallback(cb SendCallback) error

	// RegisterRecvCallback 注册接收回调，nil 表示注销
	RegisterRecvCallback(cb RecvCallback) error

	// AddPeer 添加对端（已存在时更新属性）
	AddPeer(peer PeerInfo) error

	// RemovePeer 移除对端
	RemovePeer(mac types.MAC) error

	// PeerExists 对端是否存在
	PeerExists(mac types.MAC) bool

	// Send 发送一帧，dst 必须已在对端表中
	Send(dst types.MAC, data []byte) error
}
