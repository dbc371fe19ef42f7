package services

import (
	"context"

	"github.com/fidelize/gateway/internal/models"
)

// BackendAPI is the slice of the loyalty backend the services consume.
// Implemented by backend.Client; mocked in tests.
type BackendAPI interface {
	LookupCode(ctx context.Context, schema string, customerID, rewardID int) (*models.RedemptionCode, error)
	IssueRedemption(ctx context.Context, schema string, customerID, rewardID int, note string) (*models.RedemptionCode, error)
	LedgerPage(ctx context.Context, schema string, customerID, limit int, order string) ([]models.LedgerEntry, error)
	Catalog(ctx context.Context, schema string) ([]models.RewardItem, error)
	Customer(ctx context.Context, schema string, customerID int) (*models.Customer, error)
	Login(ctx context.Context, schema, email, password string) (*models.Customer, error)
	RequestDeletion(ctx context.Context, schema string, customerID int, reason string) error
}
