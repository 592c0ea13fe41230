package usecase

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/alexjc/weboptout/internal/domain"
)

// Batch runs many domain checks concurrently. The admission gate bounds how
// many crawls are in flight at once; within each crawl everything stays
// sequential.
type Batch struct {
	checker *Checker
	gate    *semaphore.Weighted
	logger  *slog.Logger
}

// NewBatch wires a bounded batch runner; limit <= 0 means one at a time.
func NewBatch(checker *Checker, limit int64, logger *slog.Logger) *Batch {
	if limit <= 0 {
		limit = 1
	}
	return &Batch{checker: checker, gate: semaphore.NewWeighted(limit), logger: logger}
}

// CheckDomains checks every domain and returns the verdicts keyed by input.
// Order of completion is nondeterministic; each individual verdict is not.
func (b *Batch) CheckDomains(ctx context.Context, hosts []string) map[string]domain.Reservation {
	results := make(map[string]domain.Reservation, len(hosts))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, host := range hosts {
		if err := b.gate.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			defer b.gate.Release(1)

			if b.logger != nil {
				b.logger.Info("checking domain", "domain", host)
			}
			res := b.checker.CheckDomain(ctx, host)

			mu.Lock()
			results[host] = res
			mu.Unlock()
		}(host)
	}

	wg.Wait()
	return results
}
