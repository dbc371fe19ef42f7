package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/fidelize/gateway/internal/models"
)

func TestRedemptionCache_GetPut(t *testing.T) {
	c := NewRedemptionCache()

	t.Run("miss on empty cache", func(t *testing.T) {
		_, ok := c.Get(42)
		assert.False(t, ok)
	})

	t.Run("put then get returns the exact code", func(t *testing.T) {
		code := models.RedemptionCode{Code: "ABC123", RewardID: 42, BalanceAfter: 700}
		c.Put(42, code)

		got, ok := c.Get(42)
		assert.True(t, ok)
		assert.Equal(t, code, got)
		assert.True(t, c.IsVerified(42))
	})

	t.Run("put overwrites prior entry", func(t *testing.T) {
		c.Put(42, models.RedemptionCode{Code: "XYZ789", RewardID: 42})

		got, ok := c.Get(42)
		assert.True(t, ok)
		assert.Equal(t, "XYZ789", got.Code)
	})

	t.Run("used code evicts instead of storing", func(t *testing.T) {
		c.Put(42, models.RedemptionCode{Code: "OLD111", RewardID: 42, Used: true})

		_, ok := c.Get(42)
		assert.False(t, ok)
		assert.True(t, c.IsVerified(42), "used code still counts as a probe")
	})
}

func TestRedemptionCache_Clear(t *testing.T) {
	c := NewRedemptionCache()
	c.Put(1, models.RedemptionCode{Code: "A", RewardID: 1})
	c.Put(2, models.RedemptionCode{Code: "B", RewardID: 2})
	c.MarkVerified(3)

	c.Clear()

	for _, id := range []int{1, 2, 3} {
		_, ok := c.Get(id)
		assert.False(t, ok)
		assert.False(t, c.IsVerified(id))
	}
	assert.Equal(t, 0, c.Len())
}

func TestRedemptionCache_VerifiedWithoutEntry(t *testing.T) {
	c := NewRedemptionCache()
	c.MarkVerified(7)

	// Verified means "probed", not "has a code": a reward can be confirmed
	// absent.
	assert.True(t, c.IsVerified(7))
	_, ok := c.Get(7)
	assert.False(t, ok)
}

func TestRedemptionCache_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := NewRedemptionCache()
		expected := make(map[int]models.RedemptionCode)

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			rewardID := rapid.IntRange(1, 8).Draw(t, "rewardID")

			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				code := models.RedemptionCode{
					Code:     rapid.StringMatching(`[A-Z0-9]{6}`).Draw(t, "code"),
					RewardID: rewardID,
					Used:     rapid.Bool().Draw(t, "used"),
				}
				c.Put(rewardID, code)
				if code.Used {
					delete(expected, rewardID)
				} else {
					expected[rewardID] = code
				}
			case 1:
				c.Evict(rewardID)
				delete(expected, rewardID)
			case 2:
				c.MarkVerified(rewardID)
			case 3:
				c.Clear()
				expected = make(map[int]models.RedemptionCode)
			}

			// No used code is ever observable, and Get mirrors the model.
			for id, want := range expected {
				got, ok := c.Get(id)
				if !ok {
					t.Fatalf("expected entry for reward %d", id)
				}
				if got != want {
					t.Fatalf("reward %d: got %+v want %+v", id, got, want)
				}
				if got.Used {
					t.Fatalf("cache stored a used code for reward %d", id)
				}
			}
			if c.Len() != len(expected) {
				t.Fatalf("cache holds %d codes, model holds %d", c.Len(), len(expected))
			}
		}
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	a := r.ForSession("sess-a")
	b := r.ForSession("sess-b")
	assert.NotSame(t, a, b, "sessions must not share caches")
	assert.Same(t, a, r.ForSession("sess-a"))

	a.Put(1, models.RedemptionCode{Code: "A", RewardID: 1})
	r.Drop("sess-a")

	// Dropping and re-creating a session yields an empty cache.
	_, ok := r.ForSession("sess-a").Get(1)
	assert.False(t, ok)
}
