package collab

import (
	"context"
	"errors"
	"fmt"
)

// MaxSemaphore 是未配置时允许同时执行的差分数量
var MaxSemaphore int = 100

// ErrBusy 表示在限定时间内没有拿到执行名额
var ErrBusy = errors.New("too many concurrent diffs")

type SemaphoreControl struct {
	ch chan struct{}
}

func NewSemaphoreControl(max int) *SemaphoreControl {
	if max <= 0 {
		max = MaxSemaphore
	}
	return &SemaphoreControl{ch: make(chan struct{}, max)}
}

func (s *SemaphoreControl) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
	}
}

func (s *SemaphoreControl) Release() error {
	select {
	case <-s.ch:
		return nil
	default:
		return errors.New("release failed, semaphore is not acquired")
	}
}

// InUse 返回当前被占用的名额数
func (s *SemaphoreControl) InUse() int {
	return len(s.ch)
}
