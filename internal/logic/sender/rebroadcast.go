package sender

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"wallet-cleanup-sol/internal/ledger"

	"github.com/zeromicro/go-zero/core/threading"
)

// rebroadcaster 在后台按递增间隔重发相同的原始字节，ctx 结束即停止
type rebroadcaster struct {
	wg       sync.WaitGroup
	attempts atomic.Int64
}

func startRebroadcast(ctx context.Context, l ledger.Ledger, raw []byte, timing Timing, clock Clock) *rebroadcaster {
	rb := &rebroadcaster{}
	rb.wg.Add(1)
	threading.GoSafe(func() {
		defer rb.wg.Done()
		for attempt := 1; ; attempt++ {
			if !sleepCtx(ctx, clock, backoff(attempt, timing)) {
				return
			}
			// 失败忽略，结果只由竞速决定
			_, _ = l.SubmitRaw(ctx, raw, true)
			rb.attempts.Add(1)
		}
	})
	return rb
}

// backoff min(step × attempt, max)
func backoff(attempt int, timing Timing) time.Duration {
	d := timing.RebroadcastStep * time.Duration(attempt)
	if timing.RebroadcastMax > 0 && d > timing.RebroadcastMax {
		return timing.RebroadcastMax
	}
	return d
}

func (rb *rebroadcaster) Wait() {
	rb.wg.Wait()
}

func (rb *rebroadcaster) Attempts() int64 {
	return rb.attempts.Load()
}
