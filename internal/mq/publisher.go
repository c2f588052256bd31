package mq

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"wallet-cleanup-sol/internal/config"
	"wallet-cleanup-sol/internal/logic/batch"
	"wallet-cleanup-sol/internal/pkg/logger"
	"wallet-cleanup-sol/internal/pkg/types"
	"wallet-cleanup-sol/internal/utils"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/zeromicro/go-zero/core/threading"
	"google.golang.org/protobuf/types/known/structpb"
)

const flushTimeoutMs = 5000

// OutcomePublisher 异步发布每个窗口的交易结果，发布失败只记日志，不影响任务
type OutcomePublisher struct {
	producer   Producer
	closer     func()
	topic      string
	partitions int
	timeout    time.Duration

	wg     sync.WaitGroup
	sent   atomic.Int64
	failed atomic.Int64
}

func NewOutcomePublisher(producer *kafka.Producer, cfg config.KafkaProducerConfig) *OutcomePublisher {
	p := newOutcomePublisher(producer, cfg)
	p.closer = func() {
		if remaining := producer.Flush(flushTimeoutMs); remaining > 0 {
			logger.Warnf("[mq] %d messages not flushed before close", remaining)
		}
		producer.Close()
	}
	return p
}

func newOutcomePublisher(producer Producer, cfg config.KafkaProducerConfig) *OutcomePublisher {
	timeout := time.Duration(cfg.SendTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OutcomePublisher{
		producer:   producer,
		topic:      cfg.Topic,
		partitions: cfg.Partitions,
		timeout:    timeout,
	}
}

// PublishWindow 可直接作为 batch.SendOptions.OnWindow 使用
func (p *OutcomePublisher) PublishWindow(rep batch.WindowReport) {
	jobs, err := BuildOutcomeJobs(p.topic, p.partitions, rep)
	if err != nil {
		logger.Warnf("[mq] build outcome events for window %d failed: %v", rep.Index, err)
		return
	}
	p.send(jobs)
}

func (p *OutcomePublisher) PublishSummary(res batch.Result) {
	job, err := BuildSummaryJob(p.topic, res)
	if err != nil {
		logger.Warnf("[mq] build summary event failed: %v", err)
		return
	}
	p.send([]*KafkaJob{job})
}

func (p *OutcomePublisher) send(jobs []*KafkaJob) {
	if len(jobs) == 0 {
		return
	}
	p.wg.Add(1)
	threading.GoSafe(func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout*2)
		defer cancel()

		ok, failed := SendKafkaJobs(ctx, p.producer, jobs, p.timeout)
		p.sent.Add(int64(len(ok)))
		p.failed.Add(int64(len(failed)))
		for _, f := range failed {
			logger.Warnf("[mq] send to %s[%d] failed: %v", f.Job.Topic, f.Job.Partition, f.Err)
		}
	})
}

// Stats 已成功 / 失败的消息数
func (p *OutcomePublisher) Stats() (sent, failed int64) {
	return p.sent.Load(), p.failed.Load()
}

// Close 等待在途发送完成后关闭生产者
func (p *OutcomePublisher) Close() {
	p.wg.Wait()
	if p.closer != nil {
		p.closer()
	}
	sent, failed := p.Stats()
	logger.Infof("[mq] outcome publisher closed, sent=%d failed=%d", sent, failed)
}

// BuildOutcomeJobs 每笔交易一条事件，按签名分区
func BuildOutcomeJobs(topic string, partitions int, rep batch.WindowReport) ([]*KafkaJob, error) {
	jobs := make([]*KafkaJob, 0, len(rep.Outcomes))
	for i, out := range rep.Outcomes {
		fields := map[string]any{
			"window":    rep.Index,
			"position":  rep.From + i,
			"signature": out.Signature,
			"status":    out.Status.String(),
			"success":   out.Success(),
		}
		if out.Err != nil {
			fields["error"] = out.Err.Error()
		}
		msg, err := structpb.NewStruct(fields)
		if err != nil {
			return nil, err
		}
		value, err := utils.EncodeEvent(utils.EventTypeTxOutcome, msg)
		if err != nil {
			return nil, err
		}

		var partition int32
		if sig, err := types.SignatureFromBase58(out.Signature); err == nil {
			partition = utils.PartitionForSignature(sig[:], partitions)
		}
		jobs = append(jobs, &KafkaJob{
			Topic:     topic,
			Partition: partition,
			Key:       []byte(out.Signature),
			Value:     value,
		})
	}
	return jobs, nil
}

// BuildSummaryJob 任务汇总事件，固定写入 0 号分区
func BuildSummaryJob(topic string, res batch.Result) (*KafkaJob, error) {
	windows := make([]any, 0, len(res.Windows))
	for _, w := range res.Windows {
		entry := map[string]any{
			"from":      w.From,
			"to":        w.To,
			"succeeded": w.Succeeded,
			"failed":    w.Failed,
		}
		if w.Err != nil {
			entry["error"] = w.Err.Error()
		}
		windows = append(windows, entry)
	}
	msg, err := structpb.NewStruct(map[string]any{
		"success":   res.Success,
		"processed": res.Processed,
		"total":     res.Total,
		"windows":   windows,
	})
	if err != nil {
		return nil, err
	}
	value, err := utils.EncodeEvent(utils.EventTypeJobSummary, msg)
	if err != nil {
		return nil, err
	}
	return &KafkaJob{Topic: topic, Value: value}, nil
}
