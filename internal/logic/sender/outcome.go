package sender

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status 单笔交易竞速的终态
type Status int

const (
	StatusNone Status = iota // 未使用的哨兵值
	StatusAborted
	StatusExpired
	StatusTimedOut
	StatusConfirmationError
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusAborted:
		return "ABORTED"
	case StatusExpired:
		return "EXPIRED"
	case StatusTimedOut:
		return "TIMED_OUT"
	case StatusConfirmationError:
		return "CONFIRMATION_ERROR"
	case StatusSuccess:
		return "SUCCESS"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome 竞速结果，产生后不再修改
type Outcome struct {
	Status    Status
	Signature string
	Err       error
}

func (o Outcome) Success() bool {
	return o.Status == StatusSuccess
}

var (
	ErrTransport = errors.New("rpc transport error")
	ErrExpired   = errors.New("blockhash expired before confirmation")
	ErrTimedOut  = errors.New("confirmation timed out")
	ErrAborted   = errors.New("aborted")
)

// OnChainError 交易已确认但链上执行失败
type OnChainError struct {
	Payload any
	Logs    []string
}

func (e *OnChainError) Error() string {
	b, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Sprintf("on-chain error: %v", e.Payload)
	}
	return "on-chain error: " + string(b)
}
