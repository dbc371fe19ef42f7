package services

import (
	"context"
	"log"

	"github.com/fidelize/gateway/internal/config"
	"github.com/fidelize/gateway/internal/models"
	"github.com/fidelize/gateway/internal/session"
)

// StatementService fetches pages of the customer's point ledger. Read-only;
// the backend is the sole writer of ledger entries.
type StatementService struct {
	backend BackendAPI
	config  *config.RedemptionConfig
}

func NewStatementService(backendAPI BackendAPI) *StatementService {
	return &StatementService{
		backend: backendAPI,
		config:  config.LoadRedemptionConfig(),
	}
}

// PageOptions narrows a statement fetch. Zero values fall back to the
// configured defaults (newest-first, default page limit).
type PageOptions struct {
	Limit int
	Order string
}

// FetchPage fetches one page of ledger entries for the session's customer.
func (s *StatementService) FetchPage(ctx context.Context, sess *session.Session, opts PageOptions) ([]models.LedgerEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.DefaultPageLimit
	}
	if limit > s.config.MaxPageLimit {
		limit = s.config.MaxPageLimit
	}

	order := opts.Order
	if order != "asc" {
		order = "desc"
	}

	entries, err := s.backend.LedgerPage(ctx, sess.Schema, sess.CustomerID, limit, order)
	if err != nil {
		log.Printf("[Statement] FetchPage - fetch failed for customer %d: %v", sess.CustomerID, err)
		return nil, err
	}
	return entries, nil
}

// FilterRedemptions narrows an already-fetched page to redemption debits.
// It never triggers a new fetch, so the result can be shorter than a full
// page even when more redemption entries exist past the page boundary.
func FilterRedemptions(entries []models.LedgerEntry) []models.LedgerEntry {
	filtered := make([]models.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Direction == models.DirectionDebit && entry.Source == models.SourceRedemption {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}
