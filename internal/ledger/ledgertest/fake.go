// Package ledgertest 提供内存版 Ledger / Signer，供各层单元测试使用
package ledgertest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"wallet-cleanup-sol/internal/ledger"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

// SignatureOf 从原始交易字节中取出第一个签名（单签名交易）
func SignatureOf(raw []byte) string {
	if len(raw) < 65 {
		return ""
	}
	return base58.Encode(raw[1:65])
}

// Ledger 是可编排的内存账本
//   - Status 为 nil 时，所有交易在首次查询即 confirmed 成功
//   - Height 为 nil 时，区块高度恒为 0
type Ledger struct {
	Anchor    ledger.Anchor
	AnchorErr error
	SubmitErr error

	// Status 根据原始交易字节和该签名已被查询的次数返回状态
	Status     func(raw []byte, poll int) (*ledger.SignatureStatus, error)
	Height     func(call int) (uint64, error)
	Simulation func(raw []byte) (*ledger.SimulateResult, error)

	Submits       atomic.Int64
	StatusCalls   atomic.Int64
	HeightCalls   atomic.Int64
	SimulateCalls atomic.Int64
	AnchorCalls   atomic.Int64

	mu    sync.Mutex
	raw   map[string][]byte
	polls map[string]int
	order []string
}

func NewLedger() *Ledger {
	return &Ledger{
		Anchor: ledger.Anchor{
			Blockhash:            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
			LastValidBlockHeight: 1_000,
		},
		raw:   make(map[string][]byte),
		polls: make(map[string]int),
	}
}

func (l *Ledger) LatestAnchor(ctx context.Context, _ rpc.Commitment) (ledger.Anchor, error) {
	l.AnchorCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return ledger.Anchor{}, err
	}
	if l.AnchorErr != nil {
		return ledger.Anchor{}, l.AnchorErr
	}
	return l.Anchor, nil
}

func (l *Ledger) BlockHeight(ctx context.Context, _ rpc.Commitment) (uint64, error) {
	call := int(l.HeightCalls.Add(1))
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if l.Height == nil {
		return 0, nil
	}
	return l.Height(call)
}

// SubmitRaw 记录原始字节；返回空签名，调用方应使用自身计算的签名
func (l *Ledger) SubmitRaw(ctx context.Context, raw []byte, _ bool) (string, error) {
	l.Submits.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if l.SubmitErr != nil {
		return "", l.SubmitErr
	}

	sig := SignatureOf(raw)
	l.mu.Lock()
	if _, ok := l.raw[sig]; !ok {
		l.order = append(l.order, sig)
	}
	l.raw[sig] = append([]byte(nil), raw...)
	l.mu.Unlock()
	return "", nil
}

func (l *Ledger) SignatureStatus(ctx context.Context, signature string) (*ledger.SignatureStatus, error) {
	l.StatusCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	raw, ok := l.raw[signature]
	l.polls[signature]++
	poll := l.polls[signature]
	l.mu.Unlock()
	if !ok {
		return nil, nil
	}

	if l.Status == nil {
		return &ledger.SignatureStatus{Slot: 1, ConfirmationStatus: rpc.CommitmentConfirmed}, nil
	}
	return l.Status(raw, poll)
}

func (l *Ledger) Simulate(ctx context.Context, raw []byte) (*ledger.SimulateResult, error) {
	l.SimulateCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Simulation == nil {
		return &ledger.SimulateResult{Logs: []string{"Program log: ok"}}, nil
	}
	return l.Simulation(raw)
}

// Submitted 按首次提交顺序返回已提交交易的签名
func (l *Ledger) Submitted() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

// Raw 返回某签名最近一次提交的原始字节
func (l *Ledger) Raw(signature string) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.raw[signature]
}

var ErrSignerRefused = errors.New("signer refused")

// FailingSigner 在 SignAll 时始终失败
type FailingSigner struct {
	Key common.PublicKey
}

func (s FailingSigner) PublicKey() common.PublicKey { return s.Key }

func (s FailingSigner) SignAll(context.Context, []types.Message) ([]types.Transaction, error) {
	return nil, ErrSignerRefused
}

// ShortSigner 返回比输入少一笔的签名结果
type ShortSigner struct {
	ledger.Signer
}

func (s ShortSigner) SignAll(ctx context.Context, msgs []types.Message) ([]types.Transaction, error) {
	txs, err := s.Signer.SignAll(ctx, msgs)
	if err != nil || len(txs) == 0 {
		return txs, err
	}
	return txs[:len(txs)-1], nil
}
