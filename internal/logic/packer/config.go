package packer

import (
	"wallet-cleanup-sol/internal/consts"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

// Config 打包参数，在 seal 时用于重新生成 overhead 指令
type Config struct {
	Payer       common.PublicKey
	FeeReceiver common.PublicKey

	ComputeUnitLimit uint32 // 0 表示不设置
	ComputeUnitPrice uint64 // micro-lamports，0 表示不设置

	// 非空时编译为 v0 消息
	LookupTables []types.AddressLookupTableAccount

	// 打包阶段使用的占位 blockhash，签名前会被替换
	Anchor  string
	MaxSize int
}

func (c Config) withDefaults() Config {
	if c.Anchor == "" {
		c.Anchor = consts.PlaceholderBlockhash
	}
	if c.MaxSize <= 0 {
		c.MaxSize = consts.MaxTransactionSize
	}
	return c
}
