package sender

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wallet-cleanup-sol/internal/ledger"
	"wallet-cleanup-sol/internal/pkg/logger"

	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/zeromicro/go-zero/core/threading"
)

// Racer 提交交易后并发等待三路信号（过期 / 超时 / 确认），先到者决定结果
type Racer struct {
	ledger ledger.Ledger
	opts   Options
}

func NewRacer(l ledger.Ledger, opts Options) *Racer {
	return &Racer{
		ledger: l,
		opts:   opts.withDefaults(),
	}
}

// Race 返回前保证所有轮询与重发协程均已退出
func (r *Racer) Race(ctx context.Context, tx SignedTx) Outcome {
	sig, err := r.ledger.SubmitRaw(ctx, tx.Raw, true)
	if tx.Signature == "" {
		tx.Signature = sig
	}
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Status: StatusAborted, Signature: tx.Signature, Err: fmt.Errorf("%w: %v", ErrAborted, ctx.Err())}
		}
		logger.Warnf("[Racer] submit %s failed: %v", tx.Signature, err)
		return Outcome{Status: StatusConfirmationError, Signature: tx.Signature, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Outcome, 3)
	var wg sync.WaitGroup
	spawn := func(fn func(context.Context, chan<- Outcome)) {
		wg.Add(1)
		threading.GoSafe(func() {
			defer wg.Done()
			fn(raceCtx, results)
		})
	}

	if tx.LastValidBlockHeight > 0 {
		spawn(func(ctx context.Context, out chan<- Outcome) {
			r.watchExpiry(ctx, tx.LastValidBlockHeight, out)
		})
	}
	if r.opts.Timeout > 0 {
		spawn(r.watchDuration)
	}
	spawn(func(ctx context.Context, out chan<- Outcome) {
		r.watchConfirmation(ctx, tx.Signature, out)
	})

	var retry *rebroadcaster
	if !r.opts.NoRetry {
		retry = startRebroadcast(raceCtx, r.ledger, tx.Raw, r.opts.Timing, r.opts.Clock)
	}

	var outcome Outcome
	select {
	case outcome = <-results:
	case <-ctx.Done():
		outcome = Outcome{Status: StatusAborted, Err: fmt.Errorf("%w: %v", ErrAborted, ctx.Err())}
	}

	cancel()
	wg.Wait()
	if retry != nil {
		retry.Wait()
		logger.Debugf("[Racer] %s rebroadcast %d times", tx.Signature, retry.Attempts())
	}

	outcome.Signature = tx.Signature
	return outcome
}

func (r *Racer) watchExpiry(ctx context.Context, lastValid uint64, out chan<- Outcome) {
	for {
		height, err := r.ledger.BlockHeight(ctx, rpc.CommitmentConfirmed)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Debugf("[Racer] getBlockHeight failed: %v", err)
		} else if height >= lastValid {
			out <- Outcome{Status: StatusExpired, Err: fmt.Errorf("%w: height %d >= %d", ErrExpired, height, lastValid)}
			return
		}
		if !sleepCtx(ctx, r.opts.Clock, r.opts.Timing.HeightPollInterval) {
			return
		}
	}
}

func (r *Racer) watchDuration(ctx context.Context, out chan<- Outcome) {
	if !sleepCtx(ctx, r.opts.Clock, r.opts.Timeout) {
		return
	}
	out <- Outcome{Status: StatusTimedOut, Err: fmt.Errorf("%w after %s", ErrTimedOut, r.opts.Timeout)}
}

func (r *Racer) watchConfirmation(ctx context.Context, signature string, out chan<- Outcome) {
	if !sleepCtx(ctx, r.opts.Clock, r.opts.Timing.ConfirmInitialDelay) {
		return
	}

	failures := 0
	for {
		st, err := r.ledger.SignatureStatus(ctx, signature)
		if ctx.Err() != nil {
			return
		}
		switch {
		case err != nil:
			failures++
			logger.Debugf("[Racer] getSignatureStatuses %s failed (%d): %v", signature, failures, err)
			if limit := r.opts.Timing.MaxPollErrors; limit > 0 && failures >= limit {
				out <- Outcome{Status: StatusConfirmationError, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
				return
			}
		case st.Confirmed():
			if st.Err != nil {
				out <- Outcome{Status: StatusConfirmationError, Err: &OnChainError{Payload: st.Err}}
			} else {
				out <- Outcome{Status: StatusSuccess}
			}
			return
		default:
			failures = 0
		}

		if !sleepCtx(ctx, r.opts.Clock, r.opts.Timing.ConfirmPollInterval) {
			return
		}
	}
}

// sleepCtx 等待 d，ctx 先结束时返回 false
func sleepCtx(ctx context.Context, clock Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-clock.After(d):
		return true
	}
}
