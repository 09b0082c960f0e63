package eventqueue

import "errors"

var (
	// ErrFull 队列已满（非阻塞入队）
	ErrFull = errors.New("eventqueue: full")

	// ErrClosed 队列已关闭
	ErrClosed = errors.New("eventqueue: closed")

	// ErrInvalidCapacity 容量必须大于 0
	ErrInvalidCapacity = errors.New("eventqueue: capacity must be positive")
)
