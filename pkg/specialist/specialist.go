package specialist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/railguard-ai/railguard/pkg/guardrail"
)

// Proposal is one source's candidate guardrail set. Proposals are never
// mutated after creation.
type Proposal struct {
	Source     string                `json:"source"`
	Guardrails []guardrail.Guardrail `json:"guardrails"`
	Insights   []string              `json:"insights,omitempty"`
	Concerns   []string              `json:"concerns,omitempty"`
	Confidence float64               `json:"confidence"` // 0..100
}

// Specialist is a pure analyzer producing candidate guardrails from
// enriched context. Implementations must be side-effect free and
// independent of execution order.
type Specialist interface {
	Name() string
	Analyze(ctx context.Context, ec *Context) Proposal
}

// Degraded is the proposal substituted when a source fails. It carries
// zero confidence and the failure reason as a concern.
func Degraded(source, reason string) Proposal {
	return Proposal{
		Source:     source,
		Confidence: 0,
		Concerns:   []string{fmt.Sprintf("analysis failed: %s", reason)},
	}
}

// Registry holds the registered specialists.
type Registry struct {
	mu          sync.RWMutex
	specialists []Specialist
}

func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry with the full built-in specialist set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CostOptimization{})
	r.Register(&Performance{})
	r.Register(&DataGovernance{})
	r.Register(&Security{})
	r.Register(&Compliance{})
	r.Register(&Ethics{})
	r.Register(&RiskAnalyst{})
	return r
}

func (r *Registry) Register(s Specialist) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specialists = append(r.specialists, s)
}

// All returns a snapshot of the registered specialists.
func (r *Registry) All() []Specialist {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Specialist, len(r.specialists))
	copy(out, r.specialists)
	return out
}

// Run executes one specialist, containing panics. A panicking specialist
// yields the degraded proposal instead of taking down the run.
func (r *Registry) Run(ctx context.Context, s Specialist, ec *Context) (p Proposal) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("specialist panicked", "specialist", s.Name(), "panic", rec)
			p = Degraded(s.Name(), fmt.Sprintf("panic: %v", rec))
		}
	}()
	return s.Analyze(ctx, ec)
}
