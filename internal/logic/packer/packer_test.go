package packer

import (
	"bytes"
	"errors"
	"testing"

	"wallet-cleanup-sol/internal/consts"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memoProgram = common.PublicKeyFromString("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

func memo(i int, size int) types.Instruction {
	data := bytes.Repeat([]byte{byte('a' + i%26)}, size)
	return types.Instruction{ProgramID: memoProgram, Data: data}
}

func newTestConfig(payer types.Account) Config {
	return Config{Payer: payer.PublicKey}
}

func TestBuilder_PacksThreePerTransaction(t *testing.T) {
	payer := types.NewAccount()
	b := NewBuilder(newTestConfig(payer))

	var input []types.Instruction
	for i := 0; i < 120; i++ {
		ix := memo(i, 300)
		input = append(input, ix)
		require.NoError(t, b.Add(0, ix))
	}
	assert.Equal(t, 40, b.Count())

	txs, err := b.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 40)

	var output []types.Instruction
	for _, tx := range txs {
		assert.LessOrEqual(t, tx.Size, consts.MaxTransactionSize)
		assert.Len(t, tx.Instructions, 3)
		assert.Equal(t, 0, tx.Overhead)
		output = append(output, tx.Instructions...)
	}
	// 完整且保持顺序
	assert.Equal(t, input, output)
}

func TestBuilder_SizeMatchesSignedBytes(t *testing.T) {
	payer := types.NewAccount()
	cfg := newTestConfig(payer)
	cfg.ComputeUnitLimit = consts.ComputeUnits
	cfg.ComputeUnitPrice = consts.PriorityNormal
	b := NewBuilder(cfg)

	for i := 0; i < 10; i++ {
		require.NoError(t, b.Add(0, memo(i, 250)))
	}
	txs, err := b.Transactions()
	require.NoError(t, err)

	for _, tx := range txs {
		assert.Equal(t, 2, tx.Overhead)
		signed, err := types.NewTransaction(types.NewTransactionParam{
			Message: tx.Message,
			Signers: []types.Account{payer},
		})
		require.NoError(t, err)
		raw, err := signed.Serialize()
		require.NoError(t, err)
		assert.Equal(t, tx.Size, len(raw))
		assert.LessOrEqual(t, len(raw), consts.MaxTransactionSize)
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	payer := types.NewAccount()
	build := func() []*Transaction {
		b := NewBuilder(newTestConfig(payer))
		for i := 0; i < 25; i++ {
			require.NoError(t, b.Add(0, memo(i, 100+i*13)))
		}
		txs, err := b.Transactions()
		require.NoError(t, err)
		return txs
	}

	first, second := build(), build()
	require.Equal(t, len(first), len(second))
	for i := range first {
		a, err := first[i].Message.Serialize()
		require.NoError(t, err)
		b, err := second[i].Message.Serialize()
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestBuilder_OversizedGroup(t *testing.T) {
	payer := types.NewAccount()
	b := NewBuilder(newTestConfig(payer))
	require.NoError(t, b.Add(0, memo(0, 300)))

	err := b.Add(0, memo(1, 1200))
	var pe *PackingError
	require.True(t, errors.As(err, &pe))
	assert.Greater(t, pe.Size, consts.MaxTransactionSize)
	assert.Equal(t, consts.MaxTransactionSize, pe.Limit)

	// 失败的指令组不影响已累积的指令
	assert.Equal(t, 1, b.Count())
	txs, err := b.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Len(t, txs[0].Instructions, 1)
}

func TestBuilder_FeeFollowsGroup(t *testing.T) {
	payer := types.NewAccount()
	receiver := types.NewAccount()
	cfg := newTestConfig(payer)
	cfg.FeeReceiver = receiver.PublicKey
	b := NewBuilder(cfg)

	var total uint64
	for i := 0; i < 12; i++ {
		fee := uint64(1000 * (i + 1))
		total += fee
		require.NoError(t, b.Add(fee, memo(i, 280)))
	}
	txs, err := b.Transactions()
	require.NoError(t, err)
	require.Greater(t, len(txs), 1)

	var charged uint64
	idx := 0
	for _, tx := range txs {
		var expected uint64
		for range tx.Instructions {
			idx++
			expected += uint64(1000 * idx)
		}
		assert.Equal(t, expected, tx.FeeLamports, "手续费应只计入所在交易")
		assert.Equal(t, 1, tx.Overhead)
		assert.LessOrEqual(t, tx.Size, consts.MaxTransactionSize)
		charged += tx.FeeLamports
	}
	assert.Equal(t, total, charged)
}

func TestStep_Pure(t *testing.T) {
	payer := types.NewAccount()
	cfg := newTestConfig(payer)

	pending := Pending{}
	var sealed []*Transaction
	for i := 0; i < 4; i++ {
		tx, next, err := Step(cfg, pending, Group{Instructions: []types.Instruction{memo(i, 300)}})
		require.NoError(t, err)
		if tx != nil {
			sealed = append(sealed, tx)
		}
		pending = next
	}
	require.Len(t, sealed, 1)
	assert.Len(t, sealed[0].Instructions, 3)
	assert.Len(t, pending.Groups, 1)

	before := len(pending.Groups)
	tx, after, err := Step(cfg, pending, Group{Instructions: []types.Instruction{memo(9, 1300)}})
	assert.Nil(t, tx)
	assert.Error(t, err)
	assert.Len(t, after.Groups, before)
	assert.Len(t, pending.Groups, before)
}

func TestStep_Validation(t *testing.T) {
	payer := types.NewAccount()
	cfg := newTestConfig(payer)

	_, _, err := Step(cfg, Pending{}, Group{})
	assert.ErrorIs(t, err, ErrEmptyGroup)

	_, _, err = Step(cfg, Pending{}, Group{Instructions: []types.Instruction{memo(0, 10)}, FeeLamports: 5})
	assert.ErrorIs(t, err, ErrNoFeeReceiver)
}

func TestTransaction_SetAnchorKeepsSize(t *testing.T) {
	payer := types.NewAccount()
	b := NewBuilder(newTestConfig(payer))
	require.NoError(t, b.Add(0, memo(0, 64)))
	txs, err := b.Transactions()
	require.NoError(t, err)

	tx := txs[0]
	tx.SetAnchor("EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N", 77)
	size, err := SerializedSize(tx.Message)
	require.NoError(t, err)
	assert.Equal(t, tx.Size, size)
	assert.Equal(t, uint64(77), tx.LastValidBlockHeight)
}
