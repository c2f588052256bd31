package batch

import (
	"errors"
	"time"

	"wallet-cleanup-sol/internal/cache"
	"wallet-cleanup-sol/internal/consts"
	"wallet-cleanup-sol/internal/ledger"
	"wallet-cleanup-sol/internal/logic/packer"
	"wallet-cleanup-sol/internal/logic/sender"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

var (
	ErrNoSigner = errors.New("batch: signer is required")
	ErrNoLedger = errors.New("batch: ledger is required")
	ErrSigning  = errors.New("signing failed")
)

// StatusFunc 接收面向用户的进度消息
type StatusFunc func(message string, isError bool)

type Config struct {
	Ledger ledger.Ledger
	Signer ledger.Signer

	// Anchor 调用方已获取的 blockhash，非空时视为刚刚获取
	Anchor *ledger.Anchor

	LookupTables     []types.AddressLookupTableAccount
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
	FeeReceiver      common.PublicKey

	// Now 替换缓存时钟，仅用于测试
	Now func() time.Time
}

// Batch 持有一个打包器与私有的 blockhash 缓存，负责分窗口签名与发送
type Batch struct {
	cfg     Config
	builder *packer.Builder
	anchors *cache.AnchorCache
}

func New(cfg Config) (*Batch, error) {
	if cfg.Signer == nil {
		return nil, ErrNoSigner
	}
	if cfg.Ledger == nil {
		return nil, ErrNoLedger
	}

	anchors := cache.NewAnchorCache(consts.AnchorMaxAge)
	if cfg.Now != nil {
		anchors.WithClock(cfg.Now)
	}
	if cfg.Anchor != nil {
		anchors.Seed(*cfg.Anchor)
	}

	return &Batch{
		cfg: cfg,
		builder: packer.NewBuilder(packer.Config{
			Payer:            cfg.Signer.PublicKey(),
			FeeReceiver:      cfg.FeeReceiver,
			ComputeUnitLimit: cfg.ComputeUnitLimit,
			ComputeUnitPrice: cfg.ComputeUnitPrice,
			LookupTables:     cfg.LookupTables,
		}),
		anchors: anchors,
	}, nil
}

// Add 追加一组指令，feeLamports 计入该组所在的交易
func (b *Batch) Add(feeLamports uint64, ixs ...types.Instruction) error {
	return b.builder.Add(feeLamports, ixs...)
}

func (b *Batch) AddGroup(g packer.Group) error {
	return b.builder.AddGroup(g)
}

// Count 当前打包出的交易数
func (b *Batch) Count() int {
	return b.builder.Count()
}

type SendOptions struct {
	Window              int
	AbortOnFail         bool
	NoRetry             bool
	SimulateOnly        bool
	ConfirmationTimeout time.Duration // 0 使用默认 120s

	Status   StatusFunc
	OnWindow func(WindowReport)

	Timing *sender.Timing
}

const defaultWindow = 10

func DefaultSendOptions() SendOptions {
	return SendOptions{
		Window:      defaultWindow,
		AbortOnFail: true,
		NoRetry:     true,
	}
}

// WindowReport 单个窗口的统计，From/To 为 1 起始的闭区间
type WindowReport struct {
	Index     int
	From      int
	To        int
	Outcomes  []sender.Outcome
	Succeeded int
	Failed    int
	Err       error // 窗口级错误（刷新 blockhash 或签名失败）
}

func (w WindowReport) OK() bool {
	return w.Err == nil && w.Failed == 0
}

type Result struct {
	Success   bool
	Processed int
	Total     int
	Windows   []WindowReport
}
