package consts

import "time"

const (
	// MaxTransactionSize 单笔交易序列化后的字节上限（IPv6 MTU 1280 - 48 字节头）
	MaxTransactionSize = 1232

	LamportsPerSOL = 1_000_000_000

	// PlaceholderBlockhash 打包阶段用于估算大小的占位 blockhash，签名前会被替换
	PlaceholderBlockhash = "GmfDHdkQVGbaFCz5NMqiSBYjR5w347xJhhi2gGHw5sMt"

	// AnchorMaxAge blockhash 缓存的有效期，超过后签名前必须刷新
	AnchorMaxAge = 20 * time.Second
)

// 计算预算 / 优先费
const (
	ComputeUnits   uint32 = 1_200_000
	PriorityNormal uint64 = 200_000

	// PriorityAccountThreshold 待关闭账户数超过该值时启用优先费
	PriorityAccountThreshold = 50
)

// 进程退出码
const (
	ExitOK         = 0
	ExitPrivateKey = 1
	ExitRpc        = 2
	ExitConfig     = 3
)
