package frame

import "errors"

// 帧编解码错误
var (
	// ErrShortFrame 帧长度小于帧头
	ErrShortFrame = errors.New("frame: too short")

	// ErrFrameTooLarge 帧长度超过链路上限
	ErrFrameTooLarge = errors.New("frame: too large")

	// ErrChecksum 校验失败
	ErrChecksum = errors.New("frame: checksum mismatch")

	// ErrUnknownKind 未知帧类型
	ErrUnknownKind = errors.New("frame: unknown kind")

	// ErrInvalidState 状态位不是 0 或 1
	ErrInvalidState = errors.New("frame: invalid state")
)

// Reason 返回错误的简短原因标签，用于指标
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrShortFrame):
		return "short"
	case errors.Is(err, ErrFrameTooLarge):
		return "too_large"
	case errors.Is(err, ErrChecksum):
		return "checksum"
	case errors.Is(err, ErrUnknownKind):
		return "kind"
	case errors.Is(err, ErrInvalidState):
		return "state"
	default:
		return "other"
	}
}
