package ledger

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

// KeypairSigner 使用本地私钥签名，仅支持 payer 为唯一签名者的消息
type KeypairSigner struct {
	account types.Account
}

func NewKeypairSigner(account types.Account) *KeypairSigner {
	return &KeypairSigner{account: account}
}

func (s *KeypairSigner) PublicKey() common.PublicKey {
	return s.account.PublicKey
}

func (s *KeypairSigner) SignAll(ctx context.Context, msgs []types.Message) ([]types.Transaction, error) {
	txs := make([]types.Transaction, 0, len(msgs))
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if msg.Header.NumRequireSignatures != 1 || len(msg.Accounts) == 0 || msg.Accounts[0] != s.account.PublicKey {
			return nil, fmt.Errorf("message %d requires signers other than %s", i, s.account.PublicKey.ToBase58())
		}

		data, err := msg.Serialize()
		if err != nil {
			return nil, fmt.Errorf("serialize message %d: %w", i, err)
		}
		sig := ed25519.Sign(s.account.PrivateKey, data)
		txs = append(txs, types.Transaction{
			Signatures: []types.Signature{sig},
			Message:    msg,
		})
	}
	return txs, nil
}

// LoadAccount 解析私钥输入，依次尝试：
//   - JSON 私钥文件路径（solana-keygen 格式，64 个数字的数组）
//   - 内联 JSON 数组
//   - base58 编码的私钥
func LoadAccount(input string) (types.Account, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Account{}, errors.New("empty private key")
	}

	if data, err := os.ReadFile(input); err == nil {
		acc, err := accountFromJSON(data)
		if err != nil {
			return types.Account{}, fmt.Errorf("unable to load private key file %s: %w", input, err)
		}
		return acc, nil
	}

	if acc, err := accountFromJSON([]byte(input)); err == nil {
		return acc, nil
	}

	raw, err := base58.Decode(input)
	if err != nil {
		return types.Account{}, fmt.Errorf("unable to decode private key: %w", err)
	}
	return types.AccountFromBytes(raw)
}

func accountFromJSON(data []byte) (types.Account, error) {
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return types.Account{}, err
	}
	raw := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return types.Account{}, fmt.Errorf("invalid key byte %d at index %d", n, i)
		}
		raw[i] = byte(n)
	}
	return types.AccountFromBytes(raw)
}
