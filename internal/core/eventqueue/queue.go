package eventqueue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-rawlink/pkg/lib/log"
)

var logger = log.Logger("core/eventqueue")

// ============================================================================
//                              溢出策略
// ============================================================================

// Policy 队列满时 Offer 的行为
type Policy uint8

const (
	// PolicyDrop 丢弃并记录（默认，生产者永不阻塞）
	PolicyDrop Policy = iota
	// PolicyBlock 阻塞生产者直到有空位
	PolicyBlock
)

// String 返回策略名称
func (p Policy) String() string {
	switch p {
	case PolicyDrop:
		return "drop"
	case PolicyBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ParsePolicy 解析策略名称
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return PolicyDrop, nil
	case "block":
		return PolicyBlock, nil
	default:
		return PolicyDrop, fmt.Errorf("eventqueue: unknown overflow policy %q", s)
	}
}

// ============================================================================
//                              Queue
// ============================================================================

// Queue 有界 FIFO 队列
type Queue[T any] struct {
	name   string
	policy Policy
	items  chan T

	done      chan struct{}
	closeOnce sync.Once
	dropCount atomic.Int64
}

// New 创建容量为 capacity 的队列
func New[T any](name string, capacity int, policy Policy) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Queue[T]{
		name:   name,
		policy: policy,
		items:  make(chan T, capacity),
		done:   make(chan struct{}),
	}, nil
}

// TryPush 非阻塞入队
func (q *Queue[T]) TryPush(v T) error {
	if q.isClosed() {
		return ErrClosed
	}

	select {
	case q.items <- v:
		return nil
	default:
		dropped := q.dropCount.Add(1)

		// 每丢弃 100 个事件警告一次
		if dropped%100 == 1 {
			logger.Warn("队列已满，丢弃事件",
				"queue", q.name,
				"dropped", dropped,
				"cap", cap(q.items))
		}
		return ErrFull
	}
}

// Push 阻塞入队
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	if q.isClosed() {
		return ErrClosed
	}

	select {
	case q.items <- v:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Offer 按溢出策略入队
func (q *Queue[T]) Offer(v T) error {
	if q.policy == PolicyBlock {
		return q.Push(context.Background(), v)
	}
	return q.TryPush(v)
}

// Pop 阻塞出队
//
// 已入队的元素优先于关闭信号返回。
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	select {
	case v := <-q.items:
		return v, nil
	default:
	}

	var zero T
	select {
	case v := <-q.items:
		return v, nil
	case <-q.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close 关闭队列，之后的入队返回 ErrClosed，未消费的元素被丢弃
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
		if n := len(q.items); n > 0 {
			logger.Debug("关闭时丢弃未消费事件", "queue", q.name, "count", n)
		}
	})
}

// Len 当前元素数
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Cap 容量
func (q *Queue[T]) Cap() int {
	return cap(q.items)
}

// Dropped 累计丢弃数
func (q *Queue[T]) Dropped() int64 {
	return q.dropCount.Load()
}

// Policy 返回溢出策略
func (q *Queue[T]) Policy() Policy {
	return q.policy
}

func (q *Queue[T]) isClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
