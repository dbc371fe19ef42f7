package models

import "time"

// RewardItem represents a catalog item a customer may redeem points for
type RewardItem struct {
	ID                 int    `json:"id" example:"42"`                  // Reward ID
	Name               string `json:"name" example:"Caneca Exclusiva"`  // Display name
	PointCost          int64  `json:"pointCost" example:"300"`          // Cost in points
	PhotoURL           string `json:"photoUrl,omitempty"`               // Optional photo reference
	OffsiteFulfillment bool   `json:"requiresOffsiteFulfillment"`       // Fulfilled by a partner, not picked up in-store
}

// RewardView is a RewardItem enriched with session-relative fields
type RewardView struct {
	RewardItem
	CanRedeem bool `json:"canRedeem"` // Cost is within the session's last-fetched balance
}

// RedemptionCode is a single-use token proving a reward was paid for with points.
// The backend is the sole issuer; a (customer, reward) pair has at most one
// unused code outstanding at any time.
type RedemptionCode struct {
	Code         string    `json:"code" example:"ABC123"`
	RewardID     int       `json:"rewardId" example:"42"`
	Used         bool      `json:"used"`
	BalanceAfter int64     `json:"balanceAfter" example:"700"` // Customer balance at issuance time
	RequestSent  bool      `json:"requestSent"`                // Offsite fulfillment request relayed to the partner
	IssuedAt     time.Time `json:"issuedAt,omitempty"`
}
