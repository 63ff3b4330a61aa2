package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"tuichain-backend/internal/domain/settlement"

	"github.com/redis/go-redis/v9"
)

const phasesKey = "tuichain:loan-phases"

// RedisPhases keeps the last observed settlement phase of each loan in a
// Redis hash keyed by loan id.
type RedisPhases struct {
	rdb *redis.Client
}

func NewRedisPhases(rdb *redis.Client) *RedisPhases { return &RedisPhases{rdb: rdb} }

func (p *RedisPhases) LastPhase(ctx context.Context, loanID uint64) (settlement.Phase, bool, error) {
	v, err := p.rdb.HGet(ctx, phasesKey, strconv.FormatUint(loanID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return settlement.Phase(v), true, nil
}

func (p *RedisPhases) SetPhase(ctx context.Context, loanID uint64, ph settlement.Phase) error {
	return p.rdb.HSet(ctx, phasesKey, strconv.FormatUint(loanID, 10), string(ph)).Err()
}

// MemoryPhases is the single-process stand-in used when no Redis is
// configured. It forgets everything on restart.
type MemoryPhases struct {
	mu sync.Mutex
	m  map[uint64]settlement.Phase
}

func NewMemoryPhases() *MemoryPhases { return &MemoryPhases{m: make(map[uint64]settlement.Phase)} }

func (p *MemoryPhases) LastPhase(_ context.Context, loanID uint64) (settlement.Phase, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ph, ok := p.m[loanID]
	return ph, ok, nil
}

func (p *MemoryPhases) SetPhase(_ context.Context, loanID uint64, ph settlement.Phase) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[loanID] = ph
	return nil
}
