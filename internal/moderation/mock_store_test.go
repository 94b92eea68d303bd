package moderation_test

import (
	"context"
	"time"

	"wantok/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateReport(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockStore) GetReports(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	args := m.Called(ctx, status)
	reports, _ := args.Get(0).([]models.Report)
	return reports, args.Error(1)
}

func (m *MockStore) UpdateReportStatus(ctx context.Context, id uint, status models.ReportStatus, resolvedBy string) error {
	args := m.Called(ctx, id, status, resolvedBy)
	return args.Error(0)
}

func (m *MockStore) CreateSuspension(ctx context.Context, suspension *models.Suspension) error {
	args := m.Called(ctx, suspension)
	return args.Error(0)
}

func (m *MockStore) GetActiveSuspension(ctx context.Context, userID string, now time.Time) (*models.Suspension, error) {
	args := m.Called(ctx, userID, now)
	s, _ := args.Get(0).(*models.Suspension)
	return s, args.Error(1)
}

func (m *MockStore) ListActiveSuspensions(ctx context.Context, now time.Time) ([]models.Suspension, error) {
	args := m.Called(ctx, now)
	s, _ := args.Get(0).([]models.Suspension)
	return s, args.Error(1)
}

func (m *MockStore) DeleteSuspensions(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) DeleteExpiredSuspensions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CacheBan(ctx context.Context, userID string, ttl time.Duration) error {
	args := m.Called(ctx, userID, ttl)
	return args.Error(0)
}

func (m *MockStore) ClearBan(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStore) PublishKick(ctx context.Context, cmd models.KickCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyReport(ctx context.Context, report models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockNotifier) NotifySuspension(ctx context.Context, suspension models.Suspension) error {
	args := m.Called(ctx, suspension)
	return args.Error(0)
}

type MockKicker struct {
	mock.Mock
}

func (m *MockKicker) Kick(cmd models.KickCommand) bool {
	args := m.Called(cmd)
	return args.Bool(0)
}
