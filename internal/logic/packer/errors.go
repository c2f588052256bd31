package packer

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyGroup    = errors.New("instruction group is empty")
	ErrNoFeeReceiver = errors.New("fee annotated but no fee receiver configured")
)

// PackingError 单个指令组加上 overhead 仍无法放入一笔交易
type PackingError struct {
	Instructions int
	Size         int // -1 表示无法编译
	Limit        int
	Err          error
}

func (e *PackingError) Error() string {
	if e.Size < 0 {
		return fmt.Sprintf("instruction group (%d instructions) cannot be compiled: %v", e.Instructions, e.Err)
	}
	return fmt.Sprintf("instruction group (%d instructions) needs %d bytes, limit %d", e.Instructions, e.Size, e.Limit)
}

func (e *PackingError) Unwrap() error {
	return e.Err
}
