package batch

import (
	"context"
	"fmt"

	"wallet-cleanup-sol/internal/ledger"
	"wallet-cleanup-sol/internal/logic/packer"
	"wallet-cleanup-sol/internal/logic/sender"
	"wallet-cleanup-sol/internal/pkg/logger"
	pkgtypes "wallet-cleanup-sol/internal/pkg/types"
	"wallet-cleanup-sol/pkg/utils"

	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
)

// SignAndSend 按窗口顺序签名并发送全部交易，窗口内并发。
// 单笔交易的失败只体现在 Result 中；返回 error 仅限打包失败。
func (b *Batch) SignAndSend(ctx context.Context, opts SendOptions) (Result, error) {
	if opts.Window <= 0 {
		opts.Window = defaultWindow
	}
	status := opts.Status
	if status == nil {
		status = func(string, bool) {}
	}

	txs, err := b.builder.Transactions()
	if err != nil {
		return Result{}, err
	}

	total := len(txs)
	status(fmt.Sprintf("Processing %d transactions", total), false)

	racerOpts := sender.Options{
		Timeout: opts.ConfirmationTimeout,
		NoRetry: opts.NoRetry,
	}
	if opts.Timing != nil {
		racerOpts.Timing = *opts.Timing
	}
	racer := sender.NewRacer(b.cfg.Ledger, racerOpts)

	res := Result{Success: true, Total: total}
	for offset := 0; offset < total; offset += opts.Window {
		if ctx.Err() != nil {
			logger.Warnf("[Batch] context done, stop at %d/%d: %v", offset, total, ctx.Err())
			res.Success = false
			break
		}

		end := min(offset+opts.Window, total)
		rep := b.runWindow(ctx, racer, txs[offset:end], offset, total, opts, status)
		rep.Index = len(res.Windows)
		res.Windows = append(res.Windows, rep)
		res.Processed += rep.Succeeded
		if !rep.OK() {
			res.Success = false
		}
		if opts.OnWindow != nil {
			opts.OnWindow(rep)
		}

		if opts.AbortOnFail && !res.Success {
			break
		}
	}

	if !res.Success {
		status(fmt.Sprintf("Was only able to process %d out of %d transactions", res.Processed, total), true)
	}
	logger.Infof("[Batch] done, success=%v processed=%d/%d windows=%d", res.Success, res.Processed, total, len(res.Windows))
	return res, nil
}

func (b *Batch) runWindow(ctx context.Context, racer *sender.Racer, window []*packer.Transaction,
	offset, total int, opts SendOptions, status StatusFunc) WindowReport {
	rep := WindowReport{From: offset + 1, To: offset + len(window)}

	signed, err := b.signWindow(ctx, window)
	if err != nil {
		rep.Err = err
		rep.Failed = len(window)
		logger.Errorf("[Batch] window %d-%d: %v", rep.From, rep.To, err)
		status(fmt.Sprintf("Signing transactions %d-%d failed: %v", rep.From, rep.To, err), true)
		return rep
	}

	status(fmt.Sprintf("Sending transactions %d-%d out of %d", rep.From, rep.To, total), false)

	rep.Outcomes = utils.ParallelMap(signed, len(signed), func(tx sender.SignedTx) sender.Outcome {
		if opts.SimulateOnly {
			return sender.Simulate(ctx, b.cfg.Ledger, tx)
		}
		return racer.Race(ctx, tx)
	})

	for i, out := range rep.Outcomes {
		if out.Success() {
			rep.Succeeded++
			continue
		}
		rep.Failed++
		sig := out.Signature
		if sig == "" {
			sig = signed[i].Signature
		}
		status(fmt.Sprintf("Transaction %s failed with status %s and error %v", sig, out.Status, out.Err), true)
	}
	if rep.Failed > 0 {
		status(fmt.Sprintf("Confirmation for transactions %d-%d failed %d transactions", rep.From, rep.To, rep.Failed), true)
	}
	logger.Infof("[Batch] window %d-%d: %d succeeded, %d failed", rep.From, rep.To, rep.Succeeded, rep.Failed)
	return rep
}

// signWindow 刷新 blockhash、写入窗口内每笔交易后整体签名，任何一步失败则整个窗口失败
func (b *Batch) signWindow(ctx context.Context, window []*packer.Transaction) ([]sender.SignedTx, error) {
	anchor, refreshed, err := b.anchors.GetOrRefresh(ctx, func(ctx context.Context) (ledger.Anchor, error) {
		return b.cfg.Ledger.LatestAnchor(ctx, rpc.CommitmentFinalized)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: refresh blockhash: %v", ErrSigning, err)
	}
	if refreshed {
		logger.Debugf("[Batch] blockhash refreshed: %s, last valid height %d", anchor.Blockhash, anchor.LastValidBlockHeight)
	}

	msgs := make([]types.Message, len(window))
	for i, tx := range window {
		tx.SetAnchor(anchor.Blockhash, anchor.LastValidBlockHeight)
		msgs[i] = tx.Message
	}

	txs, err := b.cfg.Signer.SignAll(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	if len(txs) != len(msgs) {
		return nil, fmt.Errorf("%w: signer returned %d of %d transactions", ErrSigning, len(txs), len(msgs))
	}

	out := make([]sender.SignedTx, len(txs))
	for i, tx := range txs {
		if len(tx.Signatures) == 0 {
			return nil, fmt.Errorf("%w: transaction %d has no signature", ErrSigning, i)
		}
		sig, err := pkgtypes.SignatureFromBytes(tx.Signatures[0])
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %v", ErrSigning, i, err)
		}
		raw, err := tx.Serialize()
		if err != nil {
			return nil, fmt.Errorf("%w: serialize transaction %d: %v", ErrSigning, i, err)
		}
		out[i] = sender.SignedTx{
			Raw:                  raw,
			Signature:            sig.String(),
			LastValidBlockHeight: window[i].LastValidBlockHeight,
		}
	}
	return out, nil
}
