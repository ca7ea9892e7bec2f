package statsapi

import (
	"context"
	"sync/atomic"
)

// CallStats counts gateway activity attributable to one logical operation.
// Attach it with WithCallStats; every Fetch made with the derived context
// updates it.
type CallStats struct {
	networkCalls atomic.Int64
	cacheHits    atomic.Int64
	retries      atomic.Int64
}

type callStatsKey struct{}

func WithCallStats(ctx context.Context, stats *CallStats) context.Context {
	if stats == nil {
		return ctx
	}
	return context.WithValue(ctx, callStatsKey{}, stats)
}

func callStatsFrom(ctx context.Context) *CallStats {
	stats, _ := ctx.Value(callStatsKey{}).(*CallStats)
	return stats
}

func (s *CallStats) NetworkCalls() int64 {
	if s == nil {
		return 0
	}
	return s.networkCalls.Load()
}

func (s *CallStats) CacheHits() int64 {
	if s == nil {
		return 0
	}
	return s.cacheHits.Load()
}

func (s *CallStats) Retries() int64 {
	if s == nil {
		return 0
	}
	return s.retries.Load()
}

func (s *CallStats) addCall() {
	if s != nil {
		s.networkCalls.Add(1)
	}
}

func (s *CallStats) addCacheHit() {
	if s != nil {
		s.cacheHits.Add(1)
	}
}

func (s *CallStats) addRetry() {
	if s != nil {
		s.retries.Add(1)
	}
}
