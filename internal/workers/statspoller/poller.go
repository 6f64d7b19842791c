package statspoller

import (
	"context"
	"log"
	"sync"
	"time"

	"sondaj/internal/ports"
	"sondaj/internal/services/stats"
)

// Poller recomputes dashboard aggregates on a fixed interval and publishes
// them as atomic snapshots for the live endpoint. One refresh covers every
// schema for "all" plus each known operator, so a snapshot read never mixes
// results from two polls.
type Poller struct {
	dashboard ports.Dashboard
	operators []string

	mu sync.RWMutex
	v1 map[string]stats.ResultV1
	v2 map[string]stats.ResultV2
}

func New(dashboard ports.Dashboard, operators []string) *Poller {
	return &Poller{dashboard: dashboard, operators: operators}
}

// Run refreshes once immediately, then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	p.refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	scopes := append([]string{stats.AllOperators}, p.operators...)

	v1 := make(map[string]stats.ResultV1, len(scopes))
	v2 := make(map[string]stats.ResultV2, len(scopes))
	for _, operator := range scopes {
		r1, err := p.dashboard.V1(ctx, operator)
		if err != nil {
			log.Printf("stats poll failed (v1, operator=%s): %v", operator, err)
			return
		}
		r2, err := p.dashboard.V2(ctx, operator)
		if err != nil {
			log.Printf("stats poll failed (v2, operator=%s): %v", operator, err)
			return
		}
		v1[operator] = r1
		v2[operator] = r2
	}

	p.mu.Lock()
	p.v1, p.v2 = v1, v2
	p.mu.Unlock()
}

// SnapshotV1 returns the latest polled v1 result for the operator scope; ok
// is false before the first successful poll or for an unknown scope.
func (p *Poller) SnapshotV1(operator string) (stats.ResultV1, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.v1[operator]
	return r, ok
}

func (p *Poller) SnapshotV2(operator string) (stats.ResultV2, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.v2[operator]
	return r, ok
}
