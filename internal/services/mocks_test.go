package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fidelize/gateway/internal/models"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) LookupCode(ctx context.Context, schema string, customerID, rewardID int) (*models.RedemptionCode, error) {
	args := m.Called(ctx, schema, customerID, rewardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedemptionCode), args.Error(1)
}

func (m *MockBackend) IssueRedemption(ctx context.Context, schema string, customerID, rewardID int, note string) (*models.RedemptionCode, error) {
	args := m.Called(ctx, schema, customerID, rewardID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedemptionCode), args.Error(1)
}

func (m *MockBackend) LedgerPage(ctx context.Context, schema string, customerID, limit int, order string) ([]models.LedgerEntry, error) {
	args := m.Called(ctx, schema, customerID, limit, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

func (m *MockBackend) Catalog(ctx context.Context, schema string) ([]models.RewardItem, error) {
	args := m.Called(ctx, schema)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RewardItem), args.Error(1)
}

func (m *MockBackend) Customer(ctx context.Context, schema string, customerID int) (*models.Customer, error) {
	args := m.Called(ctx, schema, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockBackend) Login(ctx context.Context, schema, email, password string) (*models.Customer, error) {
	args := m.Called(ctx, schema, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockBackend) RequestDeletion(ctx context.Context, schema string, customerID int, reason string) error {
	args := m.Called(ctx, schema, customerID, reason)
	return args.Error(0)
}
