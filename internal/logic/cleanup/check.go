package cleanup

import (
	"context"
	"fmt"

	"wallet-cleanup-sol/internal/consts"
	"wallet-cleanup-sol/internal/ledger"
	"wallet-cleanup-sol/internal/pkg/logger"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
)

type Preflight struct {
	Anchor  ledger.Anchor
	Balance uint64
}

// CheckWallet 确认 RPC 可用并输出钱包地址与余额，返回的 blockhash 可直接用于首个窗口
func CheckWallet(ctx context.Context, l ledger.Ledger, d Discovery, wallet common.PublicKey) (Preflight, error) {
	anchor, err := l.LatestAnchor(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return Preflight{}, fmt.Errorf("rpc check failed: %w", err)
	}
	balance, err := d.Balance(ctx, wallet)
	if err != nil {
		return Preflight{}, fmt.Errorf("get balance failed: %w", err)
	}

	logger.Infof("Wallet: %s", wallet.ToBase58())
	logger.Infof("Balance: %.4f SOL", float64(balance)/consts.LamportsPerSOL)
	return Preflight{Anchor: anchor, Balance: balance}, nil
}
