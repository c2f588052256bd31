package cleanup

import (
	"context"
	"fmt"
	"time"

	"wallet-cleanup-sol/internal/consts"
	"wallet-cleanup-sol/internal/ledger"
	"wallet-cleanup-sol/internal/logic/batch"
	"wallet-cleanup-sol/internal/logic/sender"
	"wallet-cleanup-sol/internal/pkg/logger"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/token"
)

type Options struct {
	ParallelTransactions int
	ConfirmationTimeout  time.Duration
	AbortOnFail          bool
	NoRetry              bool
	SimulateOnly         bool

	ComputeUnitLimit uint32
	ComputeUnitPrice uint64 // 0 时账户数超过阈值自动使用默认优先费

	FeePerInstructionLamports uint64
	FeeReceiver               common.PublicKey

	// Anchor 预检阶段获取的 blockhash
	Anchor   *ledger.Anchor
	OnWindow func(batch.WindowReport)
	Timing   *sender.Timing
}

type Summary struct {
	Accounts     int
	RentLamports uint64
	Result       batch.Result
}

// priorityPrice 显式配置优先；否则账户数超过阈值时使用默认优先费
func priorityPrice(accounts int, configured uint64) uint64 {
	if configured > 0 {
		return configured
	}
	if accounts > consts.PriorityAccountThreshold {
		return consts.PriorityNormal
	}
	return 0
}

// CloseEmptyTokenAccounts 关闭钱包下所有余额为 0 的 token 账户，租金退回钱包
func CloseEmptyTokenAccounts(ctx context.Context, d Discovery, l ledger.Ledger, signer ledger.Signer, opts Options) (Summary, error) {
	owner := signer.PublicKey()
	accounts, err := d.EmptyTokenAccounts(ctx, owner)
	if err != nil {
		logger.Errorf("[Cleanup] Was unable to fetch empty accounts: %v", err)
		return Summary{}, err
	}

	sum := Summary{Accounts: len(accounts)}
	for _, acc := range accounts {
		sum.RentLamports += acc.Lamports
	}
	logger.Infof("Found %d empty accounts, total rent to recover %.4f SOL",
		len(accounts), float64(sum.RentLamports)/consts.LamportsPerSOL)
	if len(accounts) == 0 {
		sum.Result = batch.Result{Success: true}
		return sum, nil
	}

	b, err := newBatch(l, signer, accounts, opts)
	if err != nil {
		logger.Errorf("[Cleanup] Was unable to close empty accounts: %v", err)
		return sum, err
	}

	res, err := b.SignAndSend(ctx, batch.SendOptions{
		Window:              opts.ParallelTransactions,
		AbortOnFail:         opts.AbortOnFail,
		NoRetry:             opts.NoRetry,
		SimulateOnly:        opts.SimulateOnly,
		ConfirmationTimeout: opts.ConfirmationTimeout,
		Status:              logStatus,
		OnWindow:            opts.OnWindow,
		Timing:              opts.Timing,
	})
	if err != nil {
		logger.Errorf("[Cleanup] Was unable to close empty accounts: %v", err)
		return sum, err
	}
	sum.Result = res

	if res.Success {
		logger.Infof("All empty accounts were closed")
	} else {
		logger.Warnf("Not all empty accounts were closed, wait a minute and retry")
	}
	return sum, nil
}

func newBatch(l ledger.Ledger, signer ledger.Signer, accounts []EmptyAccount, opts Options) (*batch.Batch, error) {
	owner := signer.PublicKey()
	b, err := batch.New(batch.Config{
		Ledger:           l,
		Signer:           signer,
		Anchor:           opts.Anchor,
		ComputeUnitLimit: opts.ComputeUnitLimit,
		ComputeUnitPrice: priorityPrice(len(accounts), opts.ComputeUnitPrice),
		FeeReceiver:      opts.FeeReceiver,
	})
	if err != nil {
		return nil, err
	}

	for _, acc := range accounts {
		ix := token.CloseAccount(token.CloseAccountParam{
			Account: acc.Address,
			Auth:    owner,
			To:      owner,
		})
		if err := b.Add(opts.FeePerInstructionLamports, ix); err != nil {
			return nil, fmt.Errorf("add close instruction for %s: %w", acc.Address.ToBase58(), err)
		}
	}
	return b, nil
}

func logStatus(message string, isError bool) {
	if isError {
		logger.Errorf("%s", message)
		return
	}
	logger.Infof("%s", message)
}
