package quota

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store used when no database is configured.
// Unknown users default to the free tier.
type MemoryStore struct {
	mu    sync.Mutex
	tiers map[string]Tier
	usage map[string]int // keyed by userID + "/" + day
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tiers: make(map[string]Tier),
		usage: make(map[string]int),
	}
}

// SetTier records a user's tier.
func (s *MemoryStore) SetTier(userID string, tier Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers[userID] = tier
}

func (s *MemoryStore) UserTier(ctx context.Context, userID string) (Tier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tier, ok := s.tiers[userID]; ok {
		return tier, nil
	}
	return TierFree, nil
}

func (s *MemoryStore) DailyUsage(ctx context.Context, userID, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage[userID+"/"+day], nil
}

func (s *MemoryStore) IncrementUsage(ctx context.Context, userID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[userID+"/"+day]++
	return nil
}
