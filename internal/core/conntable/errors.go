package conntable

import "errors"

var (
	// ErrSentinelAddr 地址是保留的哨兵地址
	ErrSentinelAddr = errors.New("conntable: sentinel address")

	// ErrTableFull 没有空闲槽位
	ErrTableFull = errors.New("conntable: table full")

	// ErrNotFound 条目不存在
	ErrNotFound = errors.New("conntable: entry not found")

	// ErrDataTooLarge 关联数据超过上限
	ErrDataTooLarge = errors.New("conntable: data too large")

	// ErrInvalidDataLen 关联数据长度为负
	ErrInvalidDataLen = errors.New("conntable: invalid data length")
)
