package sender

import (
	"context"
	"fmt"

	"wallet-cleanup-sol/internal/ledger"
)

// Simulate 仅做一次模拟执行，不提交、不轮询
func Simulate(ctx context.Context, l ledger.Ledger, tx SignedTx) Outcome {
	res, err := l.Simulate(ctx, tx.Raw)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Status: StatusAborted, Signature: tx.Signature, Err: fmt.Errorf("%w: %v", ErrAborted, ctx.Err())}
		}
		return Outcome{Status: StatusConfirmationError, Signature: tx.Signature, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	if res.Err != nil {
		return Outcome{Status: StatusConfirmationError, Signature: tx.Signature, Err: &OnChainError{Payload: res.Err, Logs: res.Logs}}
	}
	return Outcome{Status: StatusSuccess, Signature: tx.Signature}
}
