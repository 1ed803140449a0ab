package collab

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"deltaServer/backend/internal/cache"
	"deltaServer/backend/internal/ot/delta"
	"deltaServer/backend/internal/ot/textdiff"
)

// Delta 代数服务接口。除 Diff 外都是纯计算，不会失败。
type Service interface {
	Compose(a, b *delta.Delta) *delta.Delta
	Transform(a, b *delta.Delta, priority bool) *delta.Delta
	TransformPosition(d *delta.Delta, index int, priority bool) int
	Invert(d, base *delta.Delta) *delta.Delta
	Slice(d *delta.Delta, start, end int) *delta.Delta

	Diff(ctx context.Context, a, b *delta.Delta, cursor *textdiff.Cursor) (*delta.Delta, error)
}

// 差分结果缓存接口，cache.RedisDiffCache 实现了它
type ResultCache interface {
	GetWithProtection(ctx context.Context, key string, compute func() ([]byte, error)) ([]byte, error)
}

const DefaultAcquireTimeout = 2 * time.Second

type AlgebraService struct {
	sem            *SemaphoreControl
	cache          ResultCache // 可为 nil
	acquireTimeout time.Duration
}

func NewAlgebraService(sem *SemaphoreControl, rc ResultCache, acquireTimeout time.Duration) *AlgebraService {
	if sem == nil {
		sem = NewSemaphoreControl(MaxSemaphore)
	}
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	return &AlgebraService{sem: sem, cache: rc, acquireTimeout: acquireTimeout}
}

func (s *AlgebraService) Compose(a, b *delta.Delta) *delta.Delta {
	return a.Compose(b)
}

func (s *AlgebraService) Transform(a, b *delta.Delta, priority bool) *delta.Delta {
	return a.Transform(b, priority)
}

func (s *AlgebraService) TransformPosition(d *delta.Delta, index int, priority bool) int {
	return d.TransformPosition(index, priority)
}

func (s *AlgebraService) Invert(d, base *delta.Delta) *delta.Delta {
	return d.Invert(base)
}

func (s *AlgebraService) Slice(d *delta.Delta, start, end int) *delta.Delta {
	return d.Slice(start, end)
}

// Diff 在信号量保护下计算差分。配置了缓存时，相同输入直接复用结果。
func (s *AlgebraService) Diff(ctx context.Context, a, b *delta.Delta, cursor *textdiff.Cursor) (*delta.Delta, error) {
	if s.cache == nil {
		return s.diff(ctx, a, b, cursor)
	}

	key, err := diffKey(a, b, cursor)
	if err != nil {
		return nil, err
	}
	raw, err := s.cache.GetWithProtection(ctx, key, func() ([]byte, error) {
		d, err := s.diff(ctx, a, b, cursor)
		if err != nil {
			return nil, err
		}
		return json.Marshal(d)
	})
	if err != nil {
		return nil, err
	}

	var out delta.Delta
	if err := json.Unmarshal(raw, &out); err != nil {
		// 缓存里的内容坏了就重新算
		log.Printf("diff cache: bad entry %s: %v", key, err)
		return s.diff(ctx, a, b, cursor)
	}
	return &out, nil
}

func (s *AlgebraService) diff(ctx context.Context, a, b *delta.Delta, cursor *textdiff.Cursor) (*delta.Delta, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()
	if err := s.sem.Acquire(acquireCtx); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.sem.Release(); err != nil {
			log.Printf("diff: %v", err)
		}
	}()
	return a.Diff(b, cursor)
}

func diffKey(a, b *delta.Delta, cursor *textdiff.Cursor) (string, error) {
	ab, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	cb, err := json.Marshal(cursor)
	if err != nil {
		return "", err
	}
	return cache.DiffKey(cache.Fingerprint(ab, bb, cb)), nil
}
