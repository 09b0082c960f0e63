package link

import "errors"

// ErrUnknownDriver 未知的链路实现
var ErrUnknownDriver = errors.New("link: unknown driver")
