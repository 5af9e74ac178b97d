package auth

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryRevocations keeps revoked token ids in memory until the token would have expired.
// The set has no size bound, so a revocation is never forgotten while its token is still
// valid. Entries are swept after the service token TTL; a revocation whose own ttl is
// shorter stops matching once that ttl passes.
// It is used when no redis address is configured; revocations do not survive a restart.
type MemoryRevocations struct {
	ids *expirable.LRU[string, time.Time]
	now func() time.Time
}

func NewMemoryRevocations(ttl time.Duration) *MemoryRevocations {
	return &MemoryRevocations{
		ids: expirable.NewLRU[string, time.Time](0, nil, ttl),
		now: time.Now,
	}
}

func (m *MemoryRevocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.ids.Add(tokenID, m.now().Add(ttl))
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	until, ok := m.ids.Get(tokenID)
	if !ok {
		return false, nil
	}
	if m.now().After(until) {
		m.ids.Remove(tokenID)
		return false, nil
	}
	return true, nil
}
