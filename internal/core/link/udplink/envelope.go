package udplink

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-rawlink/pkg/types"
)

// 信封格式：
//
//	'R' 'L' | Version(1) | Channel(1) | Dst(6) | Src(6) | Payload
const (
	envelopeMagic0 = 'R'
	envelopeMagic1 = 'L'

	// EnvelopeVersion 当前信封版本
	EnvelopeVersion = 1

	// EnvelopeHeaderSize 信封头长度
	EnvelopeHeaderSize = 16
)

var (
	// ErrBadEnvelope 信封格式错误
	ErrBadEnvelope = errors.New("udplink: bad envelope")
)

// Envelope 组播数据报信封
type Envelope struct {
	Version uint8
	Channel uint8
	Dst     types.MAC
	Src     types.MAC
	Payload []byte
}

// Marshal 编码信封
func (e Envelope) Marshal() []byte {
	buf := make([]byte, EnvelopeHeaderSize+len(e.Payload))
	buf[0] = envelopeMagic0
	buf[1] = envelopeMagic1
	buf[2] = EnvelopeVersion
	buf[3] = e.Channel
	copy(buf[4:10], e.Dst[:])
	copy(buf[10:16], e.Src[:])
	copy(buf[EnvelopeHeaderSize:], e.Payload)
	return buf
}

// UnmarshalEnvelope 解码信封，Payload 引用 data
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope

	if len(data) < EnvelopeHeaderSize {
		return e, fmt.Errorf("%w: length %d", ErrBadEnvelope, len(data))
	}
	if data[0] != envelopeMagic0 || data[1] != envelopeMagic1 {
		return e, fmt.Errorf("%w: magic %#x%#x", ErrBadEnvelope, data[0], data[1])
	}
	if data[2] != EnvelopeVersion {
		return e, fmt.Errorf("%w: version %d", ErrBadEnvelope, data[2])
	}

	e.Version = data[2]
	e.Channel = data[3]
	copy(e.Dst[:], data[4:10])
	copy(e.Src[:], data[10:16])
	e.Payload = data[EnvelopeHeaderSize:]
	return e, nil
}
