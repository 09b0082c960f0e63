package crc16

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnownVectors(t *testing.T) {
	check := []byte("123456789")

	// CRC-16/X-25
	assert.Equal(t, uint16(0x906E), Update(0x0000, check))
	// CRC-16/KERMIT 取反
	assert.Equal(t, uint16(0x2189^0xFFFF), Checksum(check))
}

func TestUpdate_Incremental(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	whole := Checksum(data)
	for split := 0; split <= len(data); split++ {
		got := Update(Update(Seed, data[:split]), data[split:])
		assert.Equal(t, whole, got, "split at %d", split)
	}
}

func TestChecksum_Empty(t *testing.T) {
	assert.Equal(t, Seed, Checksum(nil))
}

func TestChecksum_DetectsSingleBitFlip(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	orig := Checksum(data)

	for i := range data {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), data...)
			mutated[i] ^= 1 << bit
			assert.NotEqual(t, orig, Checksum(mutated), "byte %d bit %d", i, bit)
		}
	}
}
