package rendezvous

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/dep2p/go-rawlink/internal/core/frame"
	"github.com/dep2p/go-rawlink/pkg/types"
)

// sendParams 一轮运行的发送状态
//
// 只由运行 goroutine 访问。
type sendParams struct {
	runID      string
	log        *slog.Logger
	broadcast  bool
	unicast    bool
	localState uint8
	magic      uint32
	count      int
	delay      time.Duration
	dest       types.MAC
	seq        [2]uint16
	buf        []byte

	// tracked 本轮在连接表中分配的对端
	tracked []types.MAC
}

func newSendParams(runID string, cfg Config, magic uint32) *sendParams {
	return &sendParams{
		runID:     runID,
		broadcast: true,
		magic:     magic,
		count:     cfg.SendCount,
		delay:     cfg.SendDelay,
		dest:      types.BroadcastMAC,
		buf:       make([]byte, cfg.SendLen),
	}
}

// prepare 按当前目标填充发送缓冲区
//
// 帧类型由目标地址决定，序号取该类型的计数后自增。
func (p *sendParams) prepare(rnd RandSource, fillPayload bool) (types.FrameKind, error) {
	kind := types.KindFor(p.dest)

	if fillPayload {
		fillRandom(p.buf[frame.HeaderSize:], rnd)
	}

	_, err := frame.Encode(p.buf, frame.Header{
		Kind:  kind,
		State: p.localState,
		Seq:   p.seq[kind],
		Magic: p.magic,
	})
	if err != nil {
		return kind, fmt.Errorf("encode %s frame: %w", kind, err)
	}
	p.seq[kind]++
	return kind, nil
}

// state 当前对外状态
func (p *sendParams) state() types.RendezvousState {
	switch {
	case p.unicast:
		return types.StateUnicasting
	case p.localState == 1:
		return types.StateNegotiating
	default:
		return types.StateBroadcasting
	}
}

// status 状态快照
func (p *sendParams) status() types.RendezvousStatus {
	return types.RendezvousStatus{
		RunID:           p.runID,
		State:           p.state(),
		Magic:           p.magic,
		LocalState:      p.localState,
		Dest:            p.dest,
		BroadcastActive: p.broadcast,
		UnicastActive:   p.unicast,
		Remaining:       p.count,
		BroadcastSeq:    p.seq[types.FrameBroadcast],
		UnicastSeq:      p.seq[types.FrameUnicast],
	}
}

func fillRandom(b []byte, rnd RandSource) {
	var word [4]byte
	for len(b) > 0 {
		binary.LittleEndian.PutUint32(word[:], rnd.Uint32())
		b = b[copy(b, word[:]):]
	}
}
