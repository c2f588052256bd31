package config

import (
	"wallet-cleanup-sol/internal/pkg/logger"
)

type LogConfig struct {
	Format   string `json:"format,default=console,options=console|json"` // 日志格式
	LogDir   string `json:"log_dir,optional"`                            // 日志目录，为空时只输出到控制台
	Level    string `json:"level,default=info"`                          // 控制台日志级别：debug / info / warn / error
	Compress bool   `json:"compress,default=true"`                       // 是否压缩轮转后的旧日志
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// BatchConfig 分窗口发送相关配置
type BatchConfig struct {
	ParallelTransactions   int  `json:"parallel_transactions,default=5" validate:"gte=1,lte=100"` // 每个窗口并发发送的交易数
	ConfirmationTimeoutSec int  `json:"confirmation_timeout_sec,default=90" validate:"gte=0"`     // 单笔交易确认超时（秒），0 使用默认 120s
	AbortOnFail            bool `json:"abort_on_fail,default=false"`                              // 任一窗口失败后是否停止
	NoRetry                bool `json:"no_retry,default=false"`                                   // 关闭后台重发
	SimulateOnly           bool `json:"simulate_only,default=false"`                              // 仅模拟，不上链
}

// FeeConfig 计算预算与服务费
type FeeConfig struct {
	ComputeUnitLimit     uint32  `json:"compute_unit_limit,optional"`                       // 0 表示不设置
	ComputeUnitPrice     uint64  `json:"compute_unit_price,optional"`                       // micro-lamports，0 表示按账户数自动决定
	FeePerInstructionSol float64 `json:"fee_per_instruction_sol,optional" validate:"gte=0"` // 每条指令收取的服务费（SOL）
	FeeReceiver          string  `json:"fee_receiver,optional" validate:"pubkey"`           // 服务费接收地址
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置，Brokers 为空时不发布结果事件
type KafkaProducerConfig struct {
	Brokers       string `json:"brokers,optional"`                     // Kafka broker 地址，多个用英文逗号分隔
	BatchSize     int    `json:"batch_size,default=32768"`             // 批处理大小（单位字节）
	LingerMs      int    `json:"linger_ms,default=5"`                  // 批处理最大延迟（毫秒）
	Topic         string `json:"topic,default=wallet-cleanup-outcome"` // 交易结果事件 topic
	Partitions    int    `json:"partitions,default=1" validate:"gte=1"`
	SendTimeoutMs int    `json:"send_timeout_ms,default=5000"` // 单条消息发送并等待 ack 的超时
}

func (c *KafkaProducerConfig) Enabled() bool {
	return c.Brokers != ""
}

// Config 是清理工具的主配置
type Config struct {
	LogConf           LogConfig           `json:"logger"`
	BatchConf         BatchConfig         `json:"batch"`
	FeeConf           FeeConfig           `json:"fee"`
	KafkaProducerConf KafkaProducerConfig `json:"kafka_producer"`

	Rpc        string `json:"rpc,default=https://api.mainnet-beta.solana.com"`
	PrivateKey string `json:"private_key,optional"` // 私钥文件路径、JSON 数组或 base58
	ReportFile string `json:"report_file,optional"` // 非空时写入 YAML 运行报告
}
