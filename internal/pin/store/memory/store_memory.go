package memory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"pinpool/internal/pin/models"
	"pinpool/pkg/platform/sentinel"

	"github.com/google/uuid"
)

// InMemoryStore keeps allocation state in process memory. All operations are
// serialized by a single mutex, which makes SelectRandomUnallocated an atomic
// select-and-mark.
type InMemoryStore struct {
	mu    sync.Mutex
	byKey map[models.Code]*models.PIN
	rng   *rand.Rand
}

// Option configures an InMemoryStore.
type Option func(*InMemoryStore)

// WithRand sets the random source used by SelectRandomUnallocated.
func WithRand(rng *rand.Rand) Option {
	return func(s *InMemoryStore) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func New(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		byKey: make(map[models.Code]*models.PIN),
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) SelectAll(ctx context.Context) ([]*models.PIN, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.PIN, 0, len(s.byKey))
	for _, p := range s.byKey {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, len(out), nil
}

func (s *InMemoryStore) BulkInsert(ctx context.Context, pins []*models.PIN) ([]*models.PIN, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[models.Code]struct{}, len(pins))
	for _, p := range pins {
		if _, exists := s.byKey[p.Code]; exists {
			return nil, duplicate(p.Code)
		}
		if _, exists := seen[p.Code]; exists {
			return nil, duplicate(p.Code)
		}
		if !p.State.IsValid() {
			return nil, invalidState(p)
		}
		seen[p.Code] = struct{}{}
	}

	out := make([]*models.PIN, 0, len(pins))
	for _, p := range pins {
		stored := p.Clone()
		if stored.ID == "" {
			stored.ID = uuid.NewString()
		}
		s.byKey[stored.Code] = stored
		out = append(out, stored.Clone())
	}
	return out, nil
}

func (s *InMemoryStore) BulkUpsert(ctx context.Context, pins []*models.PIN) ([]*models.PIN, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pins {
		if !p.State.IsValid() {
			return nil, invalidState(p)
		}
	}

	out := make([]*models.PIN, 0, len(pins))
	for _, p := range pins {
		stored, exists := s.byKey[p.Code]
		if !exists {
			stored = &models.PIN{ID: p.ID, Code: p.Code}
			if stored.ID == "" {
				stored.ID = uuid.NewString()
			}
			s.byKey[p.Code] = stored
		}
		stored.State = p.State
		out = append(out, stored.Clone())
	}
	return out, nil
}

func (s *InMemoryStore) SelectRandomUnallocated(ctx context.Context, quantity int) ([]*models.PIN, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return []*models.PIN{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := make([]*models.PIN, 0, len(s.byKey))
	for _, p := range s.byKey {
		if p.State == models.StateUnallocated {
			candidates = append(candidates, p)
		}
	}
	// map iteration order is not a shuffle; sort first so the rng alone decides
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Code < candidates[j].Code })
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if quantity > len(candidates) {
		quantity = len(candidates)
	}
	out := make([]*models.PIN, 0, quantity)
	for _, p := range candidates[:quantity] {
		p.State = models.StateAllocated
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *InMemoryStore) ResetAllocation(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.byKey {
		if p.State == models.StateAllocated {
			p.State = models.StateUnallocated
		}
	}
	return nil
}

func duplicate(code models.Code) error {
	return &models.StoreError{
		Message: fmt.Sprintf("duplicate key value violates unique constraint on code %q", code),
		Code:    "23505",
		Err:     sentinel.ErrConflict,
	}
}

func invalidState(p *models.PIN) error {
	return &models.StoreError{
		Message: fmt.Sprintf("invalid state %d for code %q", int(p.State), p.Code),
		Code:    "22023",
		Err:     sentinel.ErrInvalidState,
	}
}
