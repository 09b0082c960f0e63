// Package crc16 实现链路帧使用的 CRC-16
//
// 算法与 crc16_le 一致：反射多项式 0x8408（0x1021 的位反转），
// 入口与出口各取反一次，因此可以分段增量计算：
//
//	Update(Update(seed, a), b) == Update(seed, append(a, b...))
//
// 以 0xFFFF 为种子时等价于 init=0x0000、xorout=0xFFFF 的 CRC-16/CCITT 反射变体；
// 以 0x0000 为种子时等价于 CRC-16/X-25。
package crc16

// Poly 反射多项式
const Poly uint16 = 0x8408

// Seed 帧校验使用的初始值
const Seed uint16 = 0xFFFF

var table = makeTable(Poly)

func makeTable(poly uint16) *[256]uint16 {
	t := new([256]uint16)
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 == 1 {
				crc = crc>>1 ^ poly
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Update 在 crc 的基础上继续计算 p
func Update(crc uint16, p []byte) uint16 {
	crc = ^crc
	for _, b := range p {
		crc = table[byte(crc)^b] ^ crc>>8
	}
	return ^crc
}

// Checksum 以 Seed 为初始值计算 p 的校验值
func Checksum(p []byte) uint16 {
	return Update(Seed, p)
}
