package services

import (
	"context"
	"log"

	"github.com/fidelize/gateway/internal/models"
	"github.com/fidelize/gateway/internal/session"
)

// CatalogService exposes the tenant's reward catalog and the customer's
// profile, both read straight through from the backend.
type CatalogService struct {
	backend  BackendAPI
	sessions *session.Store
}

func NewCatalogService(backendAPI BackendAPI, sessions *session.Store) *CatalogService {
	return &CatalogService{backend: backendAPI, sessions: sessions}
}

// Rewards returns the catalog with CanRedeem computed against the session's
// balance snapshot. An unaffordable reward is flagged so the client disables
// the action before any redemption attempt starts.
func (s *CatalogService) Rewards(ctx context.Context, sess *session.Session) ([]models.RewardView, error) {
	items, err := s.backend.Catalog(ctx, sess.Schema)
	if err != nil {
		return nil, err
	}

	views := make([]models.RewardView, 0, len(items))
	for _, item := range items {
		views = append(views, models.RewardView{
			RewardItem: item,
			CanRedeem:  item.PointCost <= sess.Balance,
		})
	}
	return views, nil
}

// FindReward looks a single reward up in the tenant catalog.
func (s *CatalogService) FindReward(ctx context.Context, sess *session.Session, rewardID int) (*models.RewardItem, bool, error) {
	items, err := s.backend.Catalog(ctx, sess.Schema)
	if err != nil {
		return nil, false, err
	}
	for _, item := range items {
		if item.ID == rewardID {
			return &item, true, nil
		}
	}
	return nil, false, nil
}

// Customer fetches the authoritative profile and refreshes the session's
// balance snapshot with it.
func (s *CatalogService) Customer(ctx context.Context, sess *session.Session) (*models.Customer, error) {
	customer, err := s.backend.Customer(ctx, sess.Schema, sess.CustomerID)
	if err != nil {
		return nil, err
	}

	if customer.Balance != sess.Balance {
		sess.Balance = customer.Balance
		if s.sessions != nil {
			if err := s.sessions.UpdateBalance(ctx, sess.ID, customer.Balance); err != nil {
				log.Printf("[Catalog] Customer - balance snapshot update failed: %v", err)
			}
		}
	}
	return customer, nil
}

// RequestDeletion forwards the customer's account-deletion request.
func (s *CatalogService) RequestDeletion(ctx context.Context, sess *session.Session, reason string) error {
	log.Printf("[Catalog] RequestDeletion - customer %d schema %s", sess.CustomerID, sess.Schema)
	return s.backend.RequestDeletion(ctx, sess.Schema, sess.CustomerID, reason)
}
