package rendezvous

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/go-rawlink/internal/core/frame"
	"github.com/dep2p/go-rawlink/pkg/types"
)

// sightings 最近观察到的对端
//
// 超出容量时淘汰最久未出现的对端。lru.Cache 自身并发安全。
type sightings struct {
	cache *lru.Cache[types.MAC, types.PeerSighting]
}

func newSightings(size int) (*sightings, error) {
	c, err := lru.New[types.MAC, types.PeerSighting](size)
	if err != nil {
		return nil, err
	}
	return &sightings{cache: c}, nil
}

// observe 记录一帧有效帧
func (s *sightings) observe(src types.MAC, f frame.Frame, now time.Time) {
	ps, ok := s.cache.Peek(src)
	if !ok {
		ps = types.PeerSighting{MAC: src, FirstSeen: now}
	}
	ps.Kind = f.Kind
	ps.Seq = f.Seq
	ps.Magic = f.Magic
	ps.State = f.State
	ps.Frames++
	ps.LastSeen = now
	s.cache.Add(src, ps)
}

// list 由旧到新返回
func (s *sightings) list() []types.PeerSighting {
	keys := s.cache.Keys()
	out := make([]types.PeerSighting, 0, len(keys))
	for _, k := range keys {
		if ps, ok := s.cache.Peek(k); ok {
			out = append(out, ps)
		}
	}
	return out
}

func (s *sightings) reset() {
	s.cache.Purge()
}
