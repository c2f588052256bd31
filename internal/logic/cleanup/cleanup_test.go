package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-cleanup-sol/internal/consts"
	"wallet-cleanup-sol/internal/ledger"
	"wallet-cleanup-sol/internal/ledger/ledgertest"
	"wallet-cleanup-sol/internal/logic/batch"
	"wallet-cleanup-sol/internal/logic/sender"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiscovery struct {
	accounts []EmptyAccount
	balance  uint64
	err      error
}

func (d *fakeDiscovery) EmptyTokenAccounts(context.Context, common.PublicKey) ([]EmptyAccount, error) {
	return d.accounts, d.err
}

func (d *fakeDiscovery) Balance(context.Context, common.PublicKey) (uint64, error) {
	return d.balance, d.err
}

func emptyAccounts(n int) []EmptyAccount {
	out := make([]EmptyAccount, n)
	for i := range out {
		out[i] = EmptyAccount{
			Address:  types.NewAccount().PublicKey,
			Lamports: 2_039_280,
		}
	}
	return out
}

func fastTiming() *sender.Timing {
	return &sender.Timing{
		HeightPollInterval:  5 * time.Millisecond,
		ConfirmInitialDelay: 5 * time.Millisecond,
		ConfirmPollInterval: 5 * time.Millisecond,
		RebroadcastStep:     2 * time.Millisecond,
		RebroadcastMax:      4 * time.Millisecond,
		MaxPollErrors:       3,
	}
}

func TestPriorityPrice(t *testing.T) {
	assert.Equal(t, uint64(0), priorityPrice(50, 0))
	assert.Equal(t, consts.PriorityNormal, priorityPrice(51, 0))
	assert.Equal(t, uint64(1234), priorityPrice(10, 1234))
	assert.Equal(t, uint64(1234), priorityPrice(100, 1234))
}

func TestCloseEmptyTokenAccounts(t *testing.T) {
	l := ledgertest.NewLedger()
	signer := ledger.NewKeypairSigner(types.NewAccount())
	d := &fakeDiscovery{accounts: emptyAccounts(30)}

	var windows []batch.WindowReport
	sum, err := CloseEmptyTokenAccounts(context.Background(), d, l, signer, Options{
		ParallelTransactions: 2,
		ConfirmationTimeout:  time.Second,
		Timing:               fastTiming(),
		OnWindow: func(w batch.WindowReport) {
			windows = append(windows, w)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 30, sum.Accounts)
	assert.Equal(t, uint64(30*2_039_280), sum.RentLamports)
	assert.True(t, sum.Result.Success)
	assert.Equal(t, sum.Result.Total, sum.Result.Processed)
	assert.Greater(t, sum.Result.Total, 1)
	assert.Len(t, windows, (sum.Result.Total+1)/2)
}

func TestCloseEmptyTokenAccounts_BatchPacking(t *testing.T) {
	owner := types.NewAccount()
	signer := ledger.NewKeypairSigner(owner)
	receiver := types.NewAccount()

	b, err := newBatch(ledgertest.NewLedger(), signer, emptyAccounts(60), Options{
		FeePerInstructionLamports: 1000,
		FeeReceiver:               receiver.PublicKey,
	})
	require.NoError(t, err)
	assert.Greater(t, b.Count(), 1)
}

func TestCloseEmptyTokenAccounts_None(t *testing.T) {
	l := ledgertest.NewLedger()
	sum, err := CloseEmptyTokenAccounts(context.Background(), &fakeDiscovery{}, l, ledger.NewKeypairSigner(types.NewAccount()), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Accounts)
	assert.True(t, sum.Result.Success)
	assert.Equal(t, int64(0), l.Submits.Load())
}

func TestCloseEmptyTokenAccounts_DiscoveryError(t *testing.T) {
	_, err := CloseEmptyTokenAccounts(context.Background(), &fakeDiscovery{err: errors.New("rpc down")},
		ledgertest.NewLedger(), ledger.NewKeypairSigner(types.NewAccount()), Options{})
	assert.Error(t, err)
}

func TestCloseEmptyTokenAccounts_SimulateOnly(t *testing.T) {
	l := ledgertest.NewLedger()
	sum, err := CloseEmptyTokenAccounts(context.Background(), &fakeDiscovery{accounts: emptyAccounts(5)}, l,
		ledger.NewKeypairSigner(types.NewAccount()), Options{ParallelTransactions: 5, SimulateOnly: true})
	require.NoError(t, err)
	assert.True(t, sum.Result.Success)
	assert.Equal(t, int64(0), l.Submits.Load())
	assert.Equal(t, int64(sum.Result.Total), l.SimulateCalls.Load())
}

func TestCheckWallet(t *testing.T) {
	l := ledgertest.NewLedger()
	wallet := types.NewAccount().PublicKey

	pre, err := CheckWallet(context.Background(), l, &fakeDiscovery{balance: 1_500_000_000}, wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), pre.Balance)
	assert.Equal(t, l.Anchor, pre.Anchor)

	l.AnchorErr = errors.New("bad gateway")
	_, err = CheckWallet(context.Background(), l, &fakeDiscovery{}, wallet)
	assert.Error(t, err)
}

func TestDecodeTokenAccount(t *testing.T) {
	owner := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey

	layout := tokenAccountLayout{State: accountStateInitialized}
	copy(layout.Owner[:], owner.Bytes())
	copy(layout.Mint[:], mint.Bytes())
	data, err := borsh.Serialize(layout)
	require.NoError(t, err)
	require.Len(t, data, tokenAccountSize)

	acc, err := decodeTokenAccount(data)
	require.NoError(t, err)
	assert.Equal(t, mint, common.PublicKeyFromBytes(acc.Mint[:]))
	assert.True(t, closable(acc, owner))
	assert.False(t, closable(acc, mint))

	layout.Amount = 1
	data, err = borsh.Serialize(layout)
	require.NoError(t, err)
	acc, err = decodeTokenAccount(data)
	require.NoError(t, err)
	assert.False(t, closable(acc, owner))

	_, err = decodeTokenAccount(data[:100])
	assert.Error(t, err)
}
