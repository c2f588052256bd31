package packer

import "github.com/blocto/solana-go-sdk/types"

// Builder 累积指令并贪心打包成尽可能少的交易，保持指令顺序
type Builder struct {
	cfg     Config
	sealed  []*Transaction
	pending Pending
}

func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg.withDefaults()}
}

// Add 追加一组指令，feeLamports 随该组落入所在交易
func (b *Builder) Add(feeLamports uint64, ixs ...types.Instruction) error {
	return b.AddGroup(Group{Instructions: ixs, FeeLamports: feeLamports})
}

func (b *Builder) AddGroup(g Group) error {
	g.Instructions = append([]types.Instruction(nil), g.Instructions...)
	tx, pending, err := Step(b.cfg, b.pending, g)
	if err != nil {
		return err
	}
	if tx != nil {
		b.sealed = append(b.sealed, tx)
	}
	b.pending = pending
	return nil
}

// Count 已定型交易数加上未定型的一笔
func (b *Builder) Count() int {
	n := len(b.sealed)
	if !b.pending.Empty() {
		n++
	}
	return n
}

// Transactions 定型剩余指令并返回全部交易
func (b *Builder) Transactions() ([]*Transaction, error) {
	if !b.pending.Empty() {
		tx, err := Seal(b.cfg, b.pending)
		if err != nil {
			return nil, err
		}
		b.sealed = append(b.sealed, tx)
		b.pending = Pending{}
	}
	return b.sealed, nil
}
