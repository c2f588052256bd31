package svc

import (
	"fmt"

	"wallet-cleanup-sol/internal/config"
	"wallet-cleanup-sol/internal/ledger"
	"wallet-cleanup-sol/internal/logic/cleanup"
	"wallet-cleanup-sol/internal/mq"
	"wallet-cleanup-sol/internal/pkg/logger"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/types"
)

// ServiceContext 包含一次清理任务所需的全部资源
type ServiceContext struct {
	Config    config.Config
	Ledger    *ledger.RpcLedger
	Discovery *cleanup.RpcDiscovery
	Signer    *ledger.KeypairSigner
	Publisher *mq.OutcomePublisher // 未配置 Kafka 时为 nil
}

// NewServiceContext 创建服务上下文，Kafka 初始化失败时降级为不发布结果
func NewServiceContext(c config.Config, account types.Account) (*ServiceContext, error) {
	if c.Rpc == "" {
		return nil, fmt.Errorf("rpc endpoint is empty")
	}

	ctx := &ServiceContext{
		Config:    c,
		Ledger:    ledger.NewRpcLedger(c.Rpc),
		Discovery: cleanup.NewRpcDiscovery(client.NewClient(c.Rpc)),
		Signer:    ledger.NewKeypairSigner(account),
	}

	if c.KafkaProducerConf.Enabled() {
		producer, err := mq.NewKafkaProducer(c.KafkaProducerConf)
		if err != nil {
			logger.Warnf("[svc] Kafka producer 初始化失败，不发布交易结果: %v", err)
		} else {
			ctx.Publisher = mq.NewOutcomePublisher(producer, c.KafkaProducerConf)
		}
	}

	logger.Infof("[svc] 服务上下文初始化完成, rpc=%s", c.Rpc)
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *ServiceContext) Close() {
	if ctx.Publisher != nil {
		ctx.Publisher.Close()
	}
}
