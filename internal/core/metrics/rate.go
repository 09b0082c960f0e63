package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ============================================================================
// RateMeter - 速率计算器
// ============================================================================

// RateMeter 基于 1 秒桶的滑动窗口速率计算器
type RateMeter struct {
	mu       sync.RWMutex
	clock    clock.Clock
	buckets  []int64
	lastIdx  int
	lastTime time.Time
	total    int64
}

// NewRateMeter 创建窗口为 window 的速率计算器（至少 1 秒）
func NewRateMeter(window time.Duration, clk clock.Clock) *RateMeter {
	n := int(window / time.Second)
	if n < 1 {
		n = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	return &RateMeter{
		clock:    clk,
		buckets:  make([]int64, n),
		lastTime: clk.Now(),
	}
}

// Add 记录 n 个字节
func (r *RateMeter) Add(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance(r.clock.Now())
	r.buckets[r.lastIdx] += n
	r.total += n
}

// advance 把当前桶推进到 now（调用方持锁）
func (r *RateMeter) advance(now time.Time) {
	elapsed := now.Sub(r.lastTime)
	if elapsed < time.Second {
		return
	}

	seconds := int(elapsed / time.Second)
	if seconds >= len(r.buckets) {
		for i := range r.buckets {
			r.buckets[i] = 0
		}
		r.lastIdx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.lastIdx = (r.lastIdx + 1) % len(r.buckets)
			r.buckets[r.lastIdx] = 0
		}
	}
	r.lastTime = r.lastTime.Add(time.Duration(seconds) * time.Second)
}

// Rate 窗口内的平均速率（字节/秒）
func (r *RateMeter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance(r.clock.Now())

	var sum int64
	for _, v := range r.buckets {
		sum += v
	}
	return float64(sum) / float64(len(r.buckets))
}

// Total 累计字节数
func (r *RateMeter) Total() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Reset 重置
func (r *RateMeter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.buckets {
		r.buckets[i] = 0
	}
	r.lastIdx = 0
	r.total = 0
	r.lastTime = r.clock.Now()
}
