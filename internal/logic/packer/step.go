package packer

import "github.com/blocto/solana-go-sdk/types"

// Pending 尚未定型的指令组
type Pending struct {
	Groups []Group
}

func (p Pending) Empty() bool {
	return len(p.Groups) == 0
}

func (p Pending) FeeLamports() uint64 {
	var fee uint64
	for _, g := range p.Groups {
		fee += g.FeeLamports
	}
	return fee
}

func (p Pending) Instructions() []types.Instruction {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Instructions)
	}
	out := make([]types.Instruction, 0, n)
	for _, g := range p.Groups {
		out = append(out, g.Instructions...)
	}
	return out
}

func (p Pending) with(next Group) Pending {
	groups := make([]Group, 0, len(p.Groups)+1)
	groups = append(groups, p.Groups...)
	groups = append(groups, next)
	return Pending{Groups: groups}
}

// Step 贪心打包的单步，纯函数：
//   - next 能并入 pending：返回 (nil, pending+next)
//   - 不能并入：将 pending 定型为交易返回，新的 pending 只含 next
//   - next 单独也放不下：返回 *PackingError，pending 不变
func Step(cfg Config, pending Pending, next Group) (*Transaction, Pending, error) {
	cfg = cfg.withDefaults()
	if err := validate(cfg, next); err != nil {
		return nil, pending, err
	}

	if !pending.Empty() {
		merged := pending.with(next)
		if fits(cfg, merged) {
			return nil, merged, nil
		}
	}

	alone := Pending{}.with(next)
	if err := checkAlone(cfg, alone); err != nil {
		return nil, pending, err
	}
	if pending.Empty() {
		return nil, alone, nil
	}

	tx, err := Seal(cfg, pending)
	if err != nil {
		return nil, pending, err
	}
	return tx, alone, nil
}

// Seal 将 pending 定型为一笔交易，overhead 按当前配置重新生成
func Seal(cfg Config, pending Pending) (*Transaction, error) {
	cfg = cfg.withDefaults()
	payload := pending.Instructions()
	fee := pending.FeeLamports()

	msg, size, head, err := compile(cfg, payload, fee)
	if err != nil {
		return nil, &PackingError{Instructions: len(payload), Size: -1, Limit: cfg.MaxSize, Err: err}
	}
	if size > cfg.MaxSize {
		return nil, &PackingError{Instructions: len(payload), Size: size, Limit: cfg.MaxSize}
	}
	return &Transaction{
		Instructions: payload,
		Overhead:     head,
		Groups:       len(pending.Groups),
		FeeLamports:  fee,
		Message:      msg,
		Size:         size,
	}, nil
}

func validate(cfg Config, g Group) error {
	if len(g.Instructions) == 0 {
		return ErrEmptyGroup
	}
	if g.FeeLamports > 0 && isZeroKey(cfg.FeeReceiver) {
		return ErrNoFeeReceiver
	}
	return nil
}

func fits(cfg Config, p Pending) bool {
	_, size, _, err := compile(cfg, p.Instructions(), p.FeeLamports())
	return err == nil && size <= cfg.MaxSize
}

func checkAlone(cfg Config, p Pending) error {
	payload := p.Instructions()
	_, size, _, err := compile(cfg, payload, p.FeeLamports())
	if err != nil {
		return &PackingError{Instructions: len(payload), Size: -1, Limit: cfg.MaxSize, Err: err}
	}
	if size > cfg.MaxSize {
		return &PackingError{Instructions: len(payload), Size: size, Limit: cfg.MaxSize}
	}
	return nil
}
