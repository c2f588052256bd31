package cleanup

import (
	"context"
	"errors"
	"fmt"

	"wallet-cleanup-sol/internal/pkg/logger"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

const (
	tokenAccountSize     = 165
	multipleAccountsPage = 100 // getMultipleAccounts 单次上限
)

// EmptyAccount 余额为 0、可关闭回收租金的 token 账户
type EmptyAccount struct {
	Address  common.PublicKey
	Mint     common.PublicKey
	Lamports uint64
}

// Discovery 查询钱包信息与可关闭的 token 账户
type Discovery interface {
	EmptyTokenAccounts(ctx context.Context, owner common.PublicKey) ([]EmptyAccount, error)
	Balance(ctx context.Context, owner common.PublicKey) (uint64, error)
}

// tokenAccountLayout SPL Token 账户的 165 字节布局
type tokenAccountLayout struct {
	Mint                 [32]byte
	Owner                [32]byte
	Amount               uint64
	DelegateOption       uint32
	Delegate             [32]byte
	State                uint8
	IsNativeOption       uint32
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption uint32
	CloseAuthority       [32]byte
}

const (
	accountStateInitialized = 1
)

func decodeTokenAccount(data []byte) (tokenAccountLayout, error) {
	var acc tokenAccountLayout
	if len(data) < tokenAccountSize {
		return acc, fmt.Errorf("token account data too short: %d", len(data))
	}
	if err := borsh.Deserialize(&acc, data[:tokenAccountSize]); err != nil {
		return acc, fmt.Errorf("decode token account: %w", err)
	}
	return acc, nil
}

// RpcDiscovery 基于 JSON-RPC 的实现
type RpcDiscovery struct {
	client *client.Client
}

func NewRpcDiscovery(c *client.Client) *RpcDiscovery {
	return &RpcDiscovery{client: c}
}

func (d *RpcDiscovery) Balance(ctx context.Context, owner common.PublicKey) (uint64, error) {
	return d.client.GetBalance(ctx, owner.ToBase58())
}

// EmptyTokenAccounts 先按 owner 列出 Token Program 下的账户，筛出余额为 0 的，
// 再用 getMultipleAccounts 读取原始数据复核余额并统计租金
func (d *RpcDiscovery) EmptyTokenAccounts(ctx context.Context, owner common.PublicKey) ([]EmptyAccount, error) {
	accounts, err := d.client.GetTokenAccountsByOwnerByProgram(ctx, owner.ToBase58(), common.TokenProgramID.ToBase58())
	if err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner failed: %w", err)
	}

	candidates := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		if acc.Amount == 0 {
			candidates = append(candidates, acc.PublicKey.ToBase58())
		}
	}
	logger.Debugf("[Cleanup] %d token accounts, %d candidates with zero amount", len(accounts), len(candidates))

	var out []EmptyAccount
	for start := 0; start < len(candidates); start += multipleAccountsPage {
		end := min(start+multipleAccountsPage, len(candidates))
		page := candidates[start:end]

		infos, err := d.client.GetMultipleAccounts(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("getMultipleAccounts failed: %w", err)
		}
		if len(infos) != len(page) {
			return nil, errors.New("getMultipleAccounts returned unexpected length")
		}

		for i, info := range infos {
			if info.Owner != common.TokenProgramID || len(info.Data) == 0 {
				continue
			}
			acc, err := decodeTokenAccount(info.Data)
			if err != nil {
				logger.Warnf("[Cleanup] skip %s: %v", page[i], err)
				continue
			}
			if !closable(acc, owner) {
				continue
			}
			out = append(out, EmptyAccount{
				Address:  common.PublicKeyFromString(page[i]),
				Mint:     common.PublicKeyFromBytes(acc.Mint[:]),
				Lamports: info.Lamports,
			})
		}
	}
	return out, nil
}

// closable 余额为 0、未冻结且归属 owner
func closable(acc tokenAccountLayout, owner common.PublicKey) bool {
	if acc.Amount != 0 || acc.State != accountStateInitialized {
		return false
	}
	return common.PublicKeyFromBytes(acc.Owner[:]) == owner
}
