package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ============================================================================
//                              MAC - 链路地址
// ============================================================================

// MACLen 链路地址长度
const MACLen = 6

// MAC 6 字节链路层地址
//
// 全 0 与全 0xFF 是保留的哨兵地址：全 0 表示"空"，全 0xFF 表示广播。
// 二者都不能作为对端身份。
type MAC [MACLen]byte

var (
	// ZeroMAC 全 0 地址
	ZeroMAC MAC

	// BroadcastMAC 广播地址
	BroadcastMAC = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// ParseMAC 解析 "aa:bb:cc:dd:ee:ff"、"aa-bb-cc-dd-ee-ff" 或 "aabbccddeeff"
func ParseMAC(s string) (MAC, error) {
	var m MAC

	clean := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	if len(clean) != MACLen*2 {
		return m, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
	}
	if _, err := hex.Decode(m[:], []byte(clean)); err != nil {
		return m, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
	}
	return m, nil
}

// MustParseMAC 解析失败时 panic，仅用于常量与测试
func MustParseMAC(s string) MAC {
	m, err := ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MACFromBytes 从字节切片构造 MAC
func MACFromBytes(b []byte) (MAC, error) {
	var m MAC
	if len(b) != MACLen {
		return m, fmt.Errorf("%w: length %d", ErrInvalidMAC, len(b))
	}
	copy(m[:], b)
	return m, nil
}

// String 返回冒号分隔的小写十六进制表示
func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsZero 是否为全 0 地址
func (m MAC) IsZero() bool {
	return m == ZeroMAC
}

// IsBroadcast 是否为广播地址
func (m MAC) IsBroadcast() bool {
	return m == BroadcastMAC
}

// IsSentinel 是否为保留哨兵地址（全 0 或全 0xFF）
func (m MAC) IsSentinel() bool {
	return m.IsZero() || m.IsBroadcast()
}

// IsLocallyAdministered 是否为本地管理地址（第一个字节 bit1 置位）
func (m MAC) IsLocallyAdministered() bool {
	return m[0]&0x02 != 0
}

// Bytes 返回地址的副本
func (m MAC) Bytes() []byte {
	b := make([]byte, MACLen)
	copy(b, m[:])
	return b
}

// MarshalText 实现 encoding.TextMarshaler
func (m MAC) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，空串解析为全 0 地址
func (m *MAC) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*m = ZeroMAC
		return nil
	}
	parsed, err := ParseMAC(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// LocalMAC 由 4 字节随机数构造一个本地管理的单播地址
//
// 前两个字节固定为 0x02, 0x52（"R"），便于在抓包中识别。
func LocalMAC(r uint32) MAC {
	return MAC{0x02, 0x52, byte(r >> 24), byte(r >> 16), byte(r >> 8), byte(r)}
}
