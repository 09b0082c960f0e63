package types

import "errors"

var (
	// ErrInvalidMAC 无效的 MAC 地址字符串
	ErrInvalidMAC = errors.New("types: invalid MAC address")
)
