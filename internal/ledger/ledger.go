package ledger

import (
	"context"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
)

// Anchor 表示交易引用的 blockhash 及其最后有效区块高度
type Anchor struct {
	Blockhash            string
	LastValidBlockHeight uint64 // 0 表示未知，此时不启用过期检测
}

// SignatureStatus 是 getSignatureStatuses 中单笔交易的状态
type SignatureStatus struct {
	Slot               uint64
	ConfirmationStatus rpc.Commitment
	Err                any // 链上执行错误，nil 表示成功
}

// Confirmed 是否已达到 confirmed 及以上的确认级别
func (s *SignatureStatus) Confirmed() bool {
	if s == nil {
		return false
	}
	return s.ConfirmationStatus == rpc.CommitmentConfirmed || s.ConfirmationStatus == rpc.CommitmentFinalized
}

// SimulateResult 模拟执行结果
type SimulateResult struct {
	Err  any
	Logs []string
}

// Ledger 是提交与确认交易所需的最小 RPC 能力集合
type Ledger interface {
	LatestAnchor(ctx context.Context, commitment rpc.Commitment) (Anchor, error)
	BlockHeight(ctx context.Context, commitment rpc.Commitment) (uint64, error)
	// SubmitRaw 广播已签名的原始交易字节，返回交易签名
	SubmitRaw(ctx context.Context, raw []byte, skipPreflight bool) (string, error)
	// SignatureStatus 查询交易状态，节点尚未见到该交易时返回 (nil, nil)
	SignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error)
	Simulate(ctx context.Context, raw []byte) (*SimulateResult, error)
}

// Signer 对一个窗口内的全部消息签名，任意一条失败则整体失败
type Signer interface {
	PublicKey() common.PublicKey
	SignAll(ctx context.Context, msgs []types.Message) ([]types.Transaction, error)
}
