package types

import (
	"fmt"
	"github.com/mr-tron/base58"
)

// Hash 表示 32 字节的 blockhash（交易锚点）
type Hash [32]byte

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// HashFromBase58 解析 RPC 返回的 blockhash，长度必须为 32 字节
func HashFromBase58(s string) (Hash, error) {
	var h Hash
	data, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("failed to decode base58 hash %q: %w", s, err)
	}
	if len(data) != 32 {
		return h, fmt.Errorf("invalid hash length: got %d, want 32, input=%q", len(data), s)
	}
	copy(h[:], data)
	return h, nil
}
