package mocks

import (
	"sync"

	"github.com/dep2p/go-rawlink/pkg/interfaces"
	"github.com/dep2p/go-rawlink/pkg/types"
)

// MockReporter 记录指标调用
type MockReporter struct {
	mu sync.Mutex

	Sent     map[types.FrameKind]int
	Received map[types.FrameKind]int
	Invalid  map[string]int
	Dropped  int
	Failed   int
	States   []types.RendezvousState
	Table    int
}

// NewMockReporter 创建 MockReporter
func NewMockReporter() *MockReporter {
	return &MockReporter{
		Sent:     make(map[types.FrameKind]int),
		Received: make(map[types.FrameKind]int),
		Invalid:  make(map[string]int),
	}
}

// FrameSent 记录发送
func (r *MockReporter) FrameSent(kind types.FrameKind, _ int) {
	r.mu.Lock()
	r.Sent[kind]++
	r.mu.Unlock()
}

// FrameReceived 记录接收
func (r *MockReporter) FrameReceived(kind types.FrameKind, _ int) {
	r.mu.Lock()
	r.Received[kind]++
	r.mu.Unlock()
}

// FrameInvalid 记录无效帧
func (r *MockReporter) FrameInvalid(reason string) {
	r.mu.Lock()
	r.Invalid[reason]++
	r.mu.Unlock()
}

// EventDropped 记录丢弃
func (r *MockReporter) EventDropped() {
	r.mu.Lock()
	r.Dropped++
	r.mu.Unlock()
}

// SendFailed 记录发送失败
func (r *MockReporter) SendFailed() {
	r.mu.Lock()
	r.Failed++
	r.mu.Unlock()
}

// StateChanged 记录状态
func (r *MockReporter) StateChanged(state types.RendezvousState) {
	r.mu.Lock()
	r.States = append(r.States, state)
	r.mu.Unlock()
}

// ConnTableSize 记录连接表占用
func (r *MockReporter) ConnTableSize(n int) {
	r.mu.Lock()
	r.Table = n
	r.mu.Unlock()
}

// InvalidCount 返回某原因的无效帧数
func (r *MockReporter) InvalidCount(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Invalid[reason]
}

// StateHistory 返回状态变化序列副本
func (r *MockReporter) StateHistory() []types.RendezvousState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.RendezvousState, len(r.States))
	copy(out, r.States)
	return out
}

var _ interfaces.Reporter = (*MockReporter)(nil)
