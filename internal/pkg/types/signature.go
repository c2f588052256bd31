package types

import (
	"fmt"
	"github.com/mr-tron/base58"
)

const SignatureLength = 64

// Signature 交易签名（同时也是交易 ID）
type Signature [SignatureLength]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// SignatureFromBytes 从原始 64 字节构造签名
func SignatureFromBytes(b []byte) (Signature, error) {
	var s Signature
	if len(b) != SignatureLength {
		return s, fmt.Errorf("invalid signature length: got %d, want %d", len(b), SignatureLength)
	}
	copy(s[:], b)
	return s, nil
}

// SignatureFromBase58 解析 base58 编码的签名（用于不信任输入路径，例如 RPC 返回值）
func SignatureFromBase58(str string) (Signature, error) {
	data, err := base58.Decode(str)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to decode base58 signature %q: %w", str, err)
	}
	return SignatureFromBytes(data)
}
