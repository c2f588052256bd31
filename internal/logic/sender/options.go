package sender

import "time"

const defaultTimeout = 120 * time.Second

// Timing 各轮询与重发间隔，测试中可缩短
type Timing struct {
	HeightPollInterval  time.Duration
	ConfirmInitialDelay time.Duration
	ConfirmPollInterval time.Duration
	RebroadcastStep     time.Duration
	RebroadcastMax      time.Duration
	// 连续查询状态失败达到该次数后判定为传输错误，0 表示不限
	MaxPollErrors int
}

func DefaultTiming() Timing {
	return Timing{
		HeightPollInterval:  2 * time.Second,
		ConfirmInitialDelay: 2 * time.Second,
		ConfirmPollInterval: time.Second,
		RebroadcastStep:     500 * time.Millisecond,
		RebroadcastMax:      2 * time.Second,
		MaxPollErrors:       30,
	}
}

// Clock 竞速中所有等待的时间来源
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type wallClock struct{}

func (wallClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

type Options struct {
	// Timeout 0 使用默认 120s，负数表示不设时长上限
	Timeout time.Duration
	NoRetry bool
	Timing  Timing
	// Clock 为空时使用系统时钟
	Clock Clock
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = defaultTimeout
	}
	if o.Timing == (Timing{}) {
		o.Timing = DefaultTiming()
	}
	if o.Clock == nil {
		o.Clock = wallClock{}
	}
	return o
}

// SignedTx 已签名待发送的交易
type SignedTx struct {
	Raw                  []byte
	Signature            string
	LastValidBlockHeight uint64 // 0 表示未知，不做过期检测
}
