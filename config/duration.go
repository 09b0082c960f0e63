// Package config 提供统一的配置管理
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// errNegativeDuration 时长为负
var errNegativeDuration = errors.New("duration must be non-negative")

// Duration 配置文件中的时长
//
// 发送间隔、空口时延等都以毫秒为粒度，因此 JSON 中既可以写
// "250ms"、"1s" 这样的字符串，也可以直接写毫秒数 250。
// 负值在解析时即被拒绝。
type Duration time.Duration

// UnmarshalJSON 解析字符串或毫秒数
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v time.Duration

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err = time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
	} else {
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf(`duration must be a string like "250ms" or milliseconds, got %s`, data)
		}
		v = time.Duration(ms) * time.Millisecond
	}

	if v < 0 {
		return fmt.Errorf("%w: %s", errNegativeDuration, v)
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON 输出字符串形式
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Duration 返回 time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Milliseconds 毫秒数
func (d Duration) Milliseconds() int64 {
	return time.Duration(d).Milliseconds()
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
