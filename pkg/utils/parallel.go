package utils

import (
	"sync/atomic"

	"github.com/zeromicro/go-zero/core/threading"
)

// ParallelMap 以 workers 个协程并发执行 fn，结果顺序与输入一致。
// fn 内的 panic 由 RunSafe 兜底，对应位置保留零值。
func ParallelMap[T any, R any](input []T, workers int, fn func(T) R) []R {
	results := make([]R, len(input))
	if len(input) == 0 {
		return results
	}
	if len(input) == 1 || workers <= 1 {
		for i, v := range input {
			results[i] = fn(v)
		}
		return results
	}
	if workers > len(input) {
		workers = len(input)
	}

	var next atomic.Int64
	group := threading.NewRoutineGroup()
	for w := 0; w < workers; w++ {
		group.RunSafe(func() {
			for {
				i := int(next.Add(1) - 1)
				if i >= len(input) {
					return
				}
				results[i] = fn(input[i])
			}
		})
	}
	group.Wait()
	return results
}
