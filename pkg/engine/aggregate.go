package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/railguard-ai/railguard/pkg/reasoning"
	"github.com/railguard-ai/railguard/pkg/specialist"
)

// defaultTaskTimeout bounds each proposal task. A timed-out task becomes
// a degraded proposal, never a pipeline abort.
const defaultTaskTimeout = 30 * time.Second

// Reasoner is the aggregator's view of the reasoning client.
type Reasoner interface {
	Propose(ctx context.Context, ec *specialist.Context, stance reasoning.Stance) (specialist.Proposal, error)
}

// GatherProposals fans out one task per registered specialist and one
// per reasoning stance, then joins on a full barrier. Tasks are
// isolated: a failure, timeout or panic fills that slot with a degraded
// proposal and does not cancel siblings. Result order is deterministic:
// specialists in registration order, then stances in fixed order.
func GatherProposals(ctx context.Context, reg *specialist.Registry, reasoner Reasoner, ec *specialist.Context, taskTimeout time.Duration, logger *slog.Logger) []specialist.Proposal {
	if taskTimeout <= 0 {
		taskTimeout = defaultTaskTimeout
	}

	specialists := reg.All()
	stances := reasoning.Stances
	results := make([]specialist.Proposal, len(specialists)+len(stances))

	var wg sync.WaitGroup
	for i, s := range specialists {
		wg.Add(1)
		go func(slot int, s specialist.Specialist) {
			defer wg.Done()
			taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
			defer cancel()
			results[slot] = runSpecialist(taskCtx, reg, s, ec)
		}(i, s)
	}
	for i, stance := range stances {
		wg.Add(1)
		go func(slot int, stance reasoning.Stance) {
			defer wg.Done()
			taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
			defer cancel()
			results[slot] = runStance(taskCtx, reasoner, ec, stance)
		}(len(specialists)+i, stance)
	}
	wg.Wait()

	for _, p := range results {
		if p.Confidence == 0 && len(p.Guardrails) == 0 {
			logger.Warn("proposal source degraded", "source", p.Source)
			proposalsDegraded.WithLabelValues(p.Source).Inc()
		}
	}
	return results
}

// runSpecialist races the specialist against its deadline. Specialists
// are pure and normally return instantly; the deadline guards against a
// misbehaving implementation.
func runSpecialist(ctx context.Context, reg *specialist.Registry, s specialist.Specialist, ec *specialist.Context) specialist.Proposal {
	done := make(chan specialist.Proposal, 1)
	go func() {
		done <- reg.Run(ctx, s, ec)
	}()
	select {
	case p := <-done:
		return p
	case <-ctx.Done():
		return specialist.Degraded(s.Name(), fmt.Sprintf("deadline exceeded: %v", ctx.Err()))
	}
}

func runStance(ctx context.Context, reasoner Reasoner, ec *specialist.Context, stance reasoning.Stance) specialist.Proposal {
	source := reasoning.SourceName(stance)
	if reasoner == nil {
		return specialist.Degraded(source, "reasoning service not configured")
	}
	p, err := reasoner.Propose(ctx, ec, stance)
	if err != nil {
		return specialist.Degraded(source, err.Error())
	}
	return p
}
