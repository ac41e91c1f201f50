package source

import (
	"context"
	"sync"

	"mercator-hq/tailsim/pkg/sampling"
	"mercator-hq/tailsim/pkg/sampling/engine"
)

// MemorySource is an in-memory policy source for tests and embedders.
// SetPolicies notifies active watchers.
type MemorySource struct {
	mu       sync.Mutex
	policies []sampling.PolicyCfg
	watchers []chan engine.PolicyEvent
}

// NewMemorySource creates a new in-memory policy source.
func NewMemorySource(policies ...sampling.PolicyCfg) *MemorySource {
	return &MemorySource{
		policies: policies,
	}
}

// LoadPolicies returns a copy of the policies stored in memory.
func (s *MemorySource) LoadPolicies(ctx context.Context) ([]sampling.PolicyCfg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	policies := make([]sampling.PolicyCfg, len(s.policies))
	copy(policies, s.policies)
	return policies, nil
}

// Watch returns a channel that receives one event per SetPolicies call.
func (s *MemorySource) Watch(ctx context.Context) (<-chan engine.PolicyEvent, error) {
	ch := make(chan engine.PolicyEvent, 1)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

// SetPolicies replaces the policies in memory and notifies watchers.
func (s *MemorySource) SetPolicies(policies []sampling.PolicyCfg) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policies = policies
	for _, w := range s.watchers {
		select {
		case w <- engine.PolicyEvent{Type: engine.PolicyEventModified, Path: "memory"}:
		default:
		}
	}
}
