// Package frame 实现汇合协议的帧编解码
//
// 帧格式（所有整数小端序）：
//
//	Type(1) | State(1) | Seq(2) | Magic(4) | CRC(2) | Payload(N)
//
// CRC 覆盖整帧，计算时 CRC 字段视为 0。帧的总长度由配置决定，
// 接收方以实际收到的长度校验。
package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/dep2p/go-rawlink/pkg/lib/crc16"
	"github.com/dep2p/go-rawlink/pkg/types"
)

const (
	offKind  = 0
	offState = 1
	offSeq   = 2
	offMagic = 4
	offCRC   = 8

	// HeaderSize 帧头长度
	HeaderSize = 10

	// MaxFrameSize 链路单帧上限
	MaxFrameSize = 250
)

// Header 帧头
type Header struct {
	Kind  types.FrameKind
	State uint8
	Seq   uint16
	Magic uint32
	CRC   uint16 // 仅解码结果有效，编码时忽略
}

// Frame 解码后的帧
type Frame struct {
	Header
	Payload []byte
	Len     int
}

// Encode 把 h 写入 buf 的帧头并在整帧上计算 CRC
//
// buf 的长度即帧长度，buf[HeaderSize:] 作为负载原样保留。
// 返回写入的 CRC。
func Encode(buf []byte, h Header) (uint16, error) {
	if len(buf) < HeaderSize {
		return 0, fmt.Errorf("%w: %d < %d", ErrShortFrame, len(buf), HeaderSize)
	}
	if len(buf) > MaxFrameSize {
		return 0, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(buf), MaxFrameSize)
	}

	buf[offKind] = byte(h.Kind)
	buf[offState] = h.State
	binary.LittleEndian.PutUint16(buf[offSeq:], h.Seq)
	binary.LittleEndian.PutUint32(buf[offMagic:], h.Magic)
	binary.LittleEndian.PutUint16(buf[offCRC:], 0)

	crc := crc16.Checksum(buf)
	binary.LittleEndian.PutUint16(buf[offCRC:], crc)
	return crc, nil
}

// Checksum 计算整帧 CRC，CRC 字段按 0 处理，不修改 data
func Checksum(data []byte) uint16 {
	var zero [2]byte

	crc := crc16.Update(crc16.Seed, data[:offCRC])
	crc = crc16.Update(crc, zero[:])
	return crc16.Update(crc, data[HeaderSize:])
}

// Parse 解析并校验一帧
//
// 不修改 data；返回的 Payload 是拷贝。
func Parse(data []byte) (Frame, error) {
	var f Frame

	if len(data) < HeaderSize {
		return f, fmt.Errorf("%w: %d < %d", ErrShortFrame, len(data), HeaderSize)
	}
	if len(data) > MaxFrameSize {
		return f, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(data), MaxFrameSize)
	}

	f.CRC = binary.LittleEndian.Uint16(data[offCRC:])
	if calc := Checksum(data); calc != f.CRC {
		return f, fmt.Errorf("%w: got %#04x want %#04x", ErrChecksum, f.CRC, calc)
	}

	f.Kind = types.FrameKind(data[offKind])
	if f.Kind != types.FrameBroadcast && f.Kind != types.FrameUnicast {
		return f, fmt.Errorf("%w: %d", ErrUnknownKind, data[offKind])
	}

	f.State = data[offState]
	if f.State > 1 {
		return f, fmt.Errorf("%w: %d", ErrInvalidState, f.State)
	}

	f.Seq = binary.LittleEndian.Uint16(data[offSeq:])
	f.Magic = binary.LittleEndian.Uint32(data[offMagic:])
	f.Len = len(data)

	f.Payload = make([]byte, len(data)-HeaderSize)
	copy(f.Payload, data[HeaderSize:])

	return f, nil
}

// Valid 仅判断帧是否通过校验
func Valid(data []byte) bool {
	_, err := Parse(data)
	return err == nil
}
