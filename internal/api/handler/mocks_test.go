package handler

import (
	"context"

	"wantok/backend/internal/models"
	"wantok/backend/internal/moderation"

	"github.com/stretchr/testify/mock"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserStore) AddTokens(ctx context.Context, userID string, amount int) (int, error) {
	args := m.Called(ctx, userID, amount)
	return args.Int(0), args.Error(1)
}

func (m *MockUserStore) DeductTokens(ctx context.Context, userID string, amount int) (int, error) {
	args := m.Called(ctx, userID, amount)
	return args.Int(0), args.Error(1)
}

func (m *MockUserStore) SetTokens(ctx context.Context, userID string, tokens int) error {
	args := m.Called(ctx, userID, tokens)
	return args.Error(0)
}

type MockModerator struct {
	mock.Mock
}

func (m *MockModerator) LogReport(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockModerator) HandleViolation(ctx context.Context, v moderation.Violation) (*models.Suspension, error) {
	args := m.Called(ctx, v)
	if s := args.Get(0); s != nil {
		return s.(*models.Suspension), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockModerator) CheckSuspension(ctx context.Context, userID string) (*models.Suspension, error) {
	args := m.Called(ctx, userID)
	if s := args.Get(0); s != nil {
		return s.(*models.Suspension), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockModerator) Unban(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockModerator) Reports(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockModerator) PendingReports(ctx context.Context) ([]models.Report, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockModerator) ResolveReport(ctx context.Context, id uint, status models.ReportStatus, resolvedBy string) error {
	args := m.Called(ctx, id, status, resolvedBy)
	return args.Error(0)
}

func (m *MockModerator) ListSuspensions(ctx context.Context) ([]models.Suspension, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Suspension), args.Error(1)
}
