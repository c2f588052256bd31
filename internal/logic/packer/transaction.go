package packer

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/compute_budget"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/types"
)

const signatureSize = 64

// Group 一次 Add 调用提交的指令组，整体落入同一笔交易
type Group struct {
	Instructions []types.Instruction
	FeeLamports  uint64
}

// Transaction 已定型的交易。签名前仅允许通过 SetAnchor 修改 blockhash
type Transaction struct {
	Instructions []types.Instruction // 业务指令，不含 overhead
	Overhead     int
	Groups       int
	FeeLamports  uint64

	Message types.Message
	Size    int

	LastValidBlockHeight uint64
}

// SetAnchor 替换 blockhash，序列化长度不变
func (t *Transaction) SetAnchor(blockhash string, lastValidBlockHeight uint64) {
	t.Message.RecentBlockHash = blockhash
	t.LastValidBlockHeight = lastValidBlockHeight
}

// overhead 按当前配置生成前置指令：compute unit limit / price / 手续费转账
func overhead(cfg Config, feeLamports uint64) []types.Instruction {
	ixs := make([]types.Instruction, 0, 3)
	if cfg.ComputeUnitLimit > 0 {
		ixs = append(ixs, compute_budget.SetComputeUnitLimit(compute_budget.SetComputeUnitLimitParam{
			Units: cfg.ComputeUnitLimit,
		}))
	}
	if cfg.ComputeUnitPrice > 0 {
		ixs = append(ixs, compute_budget.SetComputeUnitPrice(compute_budget.SetComputeUnitPriceParam{
			MicroLamports: cfg.ComputeUnitPrice,
		}))
	}
	if feeLamports > 0 {
		ixs = append(ixs, system.Transfer(system.TransferParam{
			From:   cfg.Payer,
			To:     cfg.FeeReceiver,
			Amount: feeLamports,
		}))
	}
	return ixs
}

// compile 生成消息并计算序列化后的交易长度
func compile(cfg Config, payload []types.Instruction, feeLamports uint64) (types.Message, int, int, error) {
	head := overhead(cfg, feeLamports)
	all := make([]types.Instruction, 0, len(head)+len(payload))
	all = append(all, head...)
	all = append(all, payload...)

	msg, err := newMessage(cfg, all)
	if err != nil {
		return types.Message{}, 0, 0, err
	}
	size, err := SerializedSize(msg)
	if err != nil {
		return types.Message{}, 0, 0, err
	}
	return msg, size, len(head), nil
}

// newMessage 编译消息；SDK 对非法输入可能 panic，这里统一转成 error
func newMessage(cfg Config, ixs []types.Instruction) (msg types.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compile message: %v", r)
		}
	}()
	msg = types.NewMessage(types.NewMessageParam{
		FeePayer:                   cfg.Payer,
		Instructions:               ixs,
		RecentBlockhash:            cfg.Anchor,
		AddressLookupTableAccounts: cfg.LookupTables,
	})
	return msg, nil
}

// SerializedSize 签名后交易的字节数：compact-u16(签名数) + 64*签名数 + 消息
func SerializedSize(msg types.Message) (int, error) {
	data, err := msg.Serialize()
	if err != nil {
		return 0, err
	}
	n := int(msg.Header.NumRequireSignatures)
	return compactU16Len(n) + n*signatureSize + len(data), nil
}

func compactU16Len(n int) int {
	switch {
	case n < 0x80:
		return 1
	case n < 0x4000:
		return 2
	default:
		return 3
	}
}

func isZeroKey(k common.PublicKey) bool {
	return k == common.PublicKey{}
}
