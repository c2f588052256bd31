package ledger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"wallet-cleanup-sol/internal/pkg/logger"
	"wallet-cleanup-sol/internal/pkg/types"

	"github.com/blocto/solana-go-sdk/rpc"
)

const (
	anchorRetries    = 3
	anchorRetryDelay = 300 * time.Millisecond
)

// RpcLedger 基于 solana-go-sdk 的 JSON-RPC 客户端实现 Ledger
type RpcLedger struct {
	client   rpc.RpcClient
	endpoint string
}

func NewRpcLedger(endpoint string) *RpcLedger {
	return &RpcLedger{
		client:   rpc.NewRpcClient(endpoint),
		endpoint: endpoint,
	}
}

// unwrap 将 JSON-RPC 层的错误统一转换为 error
func unwrap[T any](res rpc.JsonRpcResponse[T], err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	if res.Error != nil {
		var zero T
		return zero, fmt.Errorf("rpc error %d: %s", res.Error.Code, res.Error.Message)
	}
	return res.Result, nil
}

// LatestAnchor 获取最新 blockhash，失败时按固定间隔重试
func (l *RpcLedger) LatestAnchor(ctx context.Context, commitment rpc.Commitment) (Anchor, error) {
	var lastErr error
	for attempt := 1; attempt <= anchorRetries; attempt++ {
		res, err := unwrap(l.client.GetLatestBlockhashWithConfig(ctx, rpc.GetLatestBlockhashConfig{
			Commitment: commitment,
		}))
		if err == nil {
			if _, err = types.HashFromBase58(res.Value.Blockhash); err == nil {
				return Anchor{
					Blockhash:            res.Value.Blockhash,
					LastValidBlockHeight: res.Value.LatestValidBlockHeight,
				}, nil
			}
		}
		lastErr = err
		logger.Warnf("[RpcLedger] getLatestBlockhash attempt %d failed: %v", attempt, err)

		if attempt == anchorRetries {
			break
		}
		select {
		case <-ctx.Done():
			return Anchor{}, ctx.Err()
		case <-time.After(anchorRetryDelay):
		}
	}
	return Anchor{}, fmt.Errorf("getLatestBlockhash failed after %d attempts: %w", anchorRetries, lastErr)
}

func (l *RpcLedger) BlockHeight(ctx context.Context, commitment rpc.Commitment) (uint64, error) {
	return unwrap(l.client.GetBlockHeightWithConfig(ctx, rpc.GetBlockHeightConfig{
		Commitment: commitment,
	}))
}

func (l *RpcLedger) SubmitRaw(ctx context.Context, raw []byte, skipPreflight bool) (string, error) {
	sig, err := unwrap(l.client.SendTransactionWithConfig(ctx, base64.StdEncoding.EncodeToString(raw), rpc.SendTransactionConfig{
		SkipPreflight:       skipPreflight,
		PreflightCommitment: rpc.CommitmentConfirmed,
		Encoding:            rpc.SendTransactionConfigEncodingBase64,
	}))
	if err != nil {
		return "", err
	}
	if sig == "" {
		return "", errors.New("sendTransaction returned empty signature")
	}
	return sig, nil
}

func (l *RpcLedger) SignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	res, err := unwrap(l.client.GetSignatureStatuses(ctx, []string{signature}))
	if err != nil {
		return nil, err
	}
	if len(res.Value) == 0 || res.Value[0] == nil {
		return nil, nil
	}

	st := res.Value[0]
	out := &SignatureStatus{
		Slot: st.Slot,
		Err:  st.Err,
	}
	if st.ConfirmationStatus != nil {
		out.ConfirmationStatus = *st.ConfirmationStatus
	}
	return out, nil
}

// Simulate 模拟执行：不校验签名，不替换 blockhash，使用 confirmed 级别
func (l *RpcLedger) Simulate(ctx context.Context, raw []byte) (*SimulateResult, error) {
	res, err := unwrap(l.client.SimulateTransactionWithConfig(ctx, base64.StdEncoding.EncodeToString(raw), rpc.SimulateTransactionConfig{
		Encoding:               rpc.SimulateTransactionEncodingBase64,
		SigVerify:              false,
		ReplaceRecentBlockhash: false,
		Commitment:             rpc.CommitmentConfirmed,
	}))
	if err != nil {
		return nil, err
	}
	return &SimulateResult{
		Err:  res.Value.Err,
		Logs: res.Value.Logs,
	}, nil
}
