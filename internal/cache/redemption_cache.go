package cache

import (
	"sync"

	"github.com/fidelize/gateway/internal/models"
)

// RedemptionCache holds the unused redemption codes already seen for one
// customer session, keyed by reward ID, so the backend is not asked twice
// whether an outstanding code exists. It also memoizes negative lookups: a
// reward ID in the verified set with no cache entry is confirmed to have no
// outstanding code.
//
// Invariant: every stored code has Used == false. Used codes are evicted,
// never cached.
type RedemptionCache struct {
	mu       sync.RWMutex
	codes    map[int]models.RedemptionCode
	verified map[int]struct{}
}

func NewRedemptionCache() *RedemptionCache {
	return &RedemptionCache{
		codes:    make(map[int]models.RedemptionCode),
		verified: make(map[int]struct{}),
	}
}

// Get returns the cached unused code for a reward, if any. No side effects.
func (c *RedemptionCache) Get(rewardID int) (models.RedemptionCode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.codes[rewardID]
	return code, ok
}

// Put stores an unused code for a reward, overwriting any prior entry, and
// marks the reward verified. Used codes are ignored; if one is passed the
// prior entry for that reward is evicted instead.
func (c *RedemptionCache) Put(rewardID int, code models.RedemptionCode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if code.Used {
		delete(c.codes, rewardID)
		c.verified[rewardID] = struct{}{}
		return
	}
	c.codes[rewardID] = code
	c.verified[rewardID] = struct{}{}
}

// Evict removes the cached code for a reward, keeping its verified mark.
func (c *RedemptionCache) Evict(rewardID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.codes, rewardID)
}

// MarkVerified records that the backend was asked about a reward this
// session, regardless of whether a code exists for it.
func (c *RedemptionCache) MarkVerified(rewardID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verified[rewardID] = struct{}{}
}

// IsVerified reports whether the backend was already probed for a reward
// this session.
func (c *RedemptionCache) IsVerified(rewardID int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.verified[rewardID]
	return ok
}

// Clear wipes all codes and verified marks. Called when the session's
// customer identity goes away.
func (c *RedemptionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes = make(map[int]models.RedemptionCode)
	c.verified = make(map[int]struct{})
}

// Len returns the number of cached codes.
func (c *RedemptionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.codes)
}
