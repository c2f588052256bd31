package utils

// PartitionHashBytes 从 byte slice 中选取 4 字节构造 uint32 并模 mod，用于分区选择。
// 签名 / 公钥本身近似均匀分布，无需再做哈希。
func PartitionHashBytes(b []byte, mod uint32) uint32 {
	if len(b) < 28 || mod <= 1 {
		return 0
	}
	switch mod {
	case 2, 4, 8, 16:
		return uint32(b[27]) & (mod - 1)
	}
	hash := uint32(b[7])<<24 | uint32(b[15])<<16 | uint32(b[19])<<8 | uint32(b[27])
	return hash % mod
}

// PartitionForSignature 交易签名对应的分区，同一笔交易的事件总是落在同一分区
func PartitionForSignature(sig []byte, partitions int) int32 {
	if partitions <= 1 {
		return 0
	}
	return int32(PartitionHashBytes(sig, uint32(partitions)))
}
