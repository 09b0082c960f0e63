package rendezvous

import "github.com/dep2p/go-rawlink/pkg/types"

// event 引擎事件
type event interface {
	isEvent()
}

// sendDoneEvent 链路发送完成
type sendDoneEvent struct {
	dst    types.MAC
	status types.SendStatus
}

// recvEvent 收到一帧，data 已从链路缓冲区拷贝
type recvEvent struct {
	src  types.MAC
	data []byte
}

// exitEvent 请求退出
type exitEvent struct{}

func (sendDoneEvent) isEvent() {}
func (recvEvent) isEvent()     {}
func (exitEvent) isEvent()     {}
