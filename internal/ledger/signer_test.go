package ledger

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBlockhash = "GmfDHdkQVGbaFCz5NMqiSBYjR5w347xJhhi2gGHw5sMt"

func transferMessage(from, to common.PublicKey) types.Message {
	return types.NewMessage(types.NewMessageParam{
		FeePayer: from,
		Instructions: []types.Instruction{
			system.Transfer(system.TransferParam{From: from, To: to, Amount: 1}),
		},
		RecentBlockhash: testBlockhash,
	})
}

func TestKeypairSigner_SignAll(t *testing.T) {
	payer := types.NewAccount()
	other := types.NewAccount()
	signer := NewKeypairSigner(payer)

	msgs := []types.Message{
		transferMessage(payer.PublicKey, other.PublicKey),
		transferMessage(payer.PublicKey, other.PublicKey),
	}
	txs, err := signer.SignAll(context.Background(), msgs)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	for i, tx := range txs {
		require.Len(t, tx.Signatures, 1)
		data, err := msgs[i].Serialize()
		require.NoError(t, err)
		assert.True(t, ed25519.Verify(payer.PublicKey.Bytes(), data, tx.Signatures[0]))

		raw, err := tx.Serialize()
		require.NoError(t, err)
		assert.NotEmpty(t, raw)
	}
}

func TestKeypairSigner_RejectsForeignSigner(t *testing.T) {
	payer := types.NewAccount()
	other := types.NewAccount()
	signer := NewKeypairSigner(payer)

	// other 作为 fee payer，payer 无法独立签名
	_, err := signer.SignAll(context.Background(), []types.Message{
		transferMessage(payer.PublicKey, other.PublicKey),
		transferMessage(other.PublicKey, payer.PublicKey),
	})
	assert.Error(t, err)
}

func TestLoadAccount(t *testing.T) {
	acc := types.NewAccount()

	nums := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		nums[i] = int(b)
	}
	inline, err := json.Marshal(nums)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, inline, 0o600))

	cases := map[string]string{
		"file":   path,
		"inline": string(inline),
		"base58": base58.Encode(acc.PrivateKey),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			loaded, err := LoadAccount(input)
			require.NoError(t, err)
			assert.Equal(t, acc.PublicKey, loaded.PublicKey)
		})
	}

	_, err = LoadAccount("not-a-key!")
	assert.Error(t, err)
	_, err = LoadAccount("")
	assert.Error(t, err)
}
