package moderation_test

import (
	"context"
	"testing"
	"time"

	"wantok/backend/internal/config"
	"wantok/backend/internal/models"
	"wantok/backend/internal/moderation"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClassifyViolation(t *testing.T) {
	tests := []struct {
		reason   string
		wantType models.SuspensionType
		wantDur  time.Duration
	}{
		{"Nudity detected on camera", models.SuspensionPermanent, 0},
		{"appears to be a MINOR", models.SuspensionPermanent, 0},
		{"sexual content", models.SuspensionPermanent, 0},
		{"child safety", models.SuspensionPermanent, 0},
		{"showed a weapon", models.SuspensionTemporary, config.WeaponDrugSuspension},
		{"drug sale", models.SuspensionTemporary, config.WeaponDrugSuspension},
		{"harassment", models.SuspensionTemporary, config.DefaultSuspension},
		{"", models.SuspensionTemporary, config.DefaultSuspension},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			kind, dur := moderation.ClassifyViolation(tt.reason)
			assert.Equal(t, tt.wantType, kind)
			assert.Equal(t, tt.wantDur, dur)
		})
	}
}

func TestService_LogReport(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	svc := moderation.NewService(store, notifier)

	store.On("CreateReport", mock.Anything, mock.AnythingOfType("*models.Report")).Return(nil)
	notifier.On("NotifyReport", mock.Anything, mock.AnythingOfType("models.Report")).Return(assert.AnError)

	report := &models.Report{ReporterID: "u1", ReportedUserID: "u2", Reason: "rude", Status: models.ReportResolved}
	require.NoError(t, svc.LogReport(context.Background(), report), "notifier failures are not fatal")

	assert.Equal(t, models.ReportPending, report.Status)
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)

	err := svc.LogReport(context.Background(), &models.Report{ReportedUserID: "u2"})
	assert.ErrorIs(t, err, moderation.ErrInvalidReport)
}

func TestService_HandleViolation_Permanent(t *testing.T) {
	store := new(MockStore)
	svc := moderation.NewService(store, nil)

	store.On("CreateSuspension", mock.Anything, mock.MatchedBy(func(s *models.Suspension) bool {
		return s.UserID == "u2" && s.SuspensionType == models.SuspensionPermanent && !s.ExpiresAt.Valid
	})).Return(nil)
	store.On("CacheBan", mock.Anything, "u2", time.Duration(0)).Return(nil)
	store.On("PublishKick", mock.Anything, mock.MatchedBy(func(cmd models.KickCommand) bool {
		return cmd.UserID == "u2" && cmd.ExpiresAt == nil && cmd.SuspensionType == models.SuspensionPermanent
	})).Return(nil)

	s, err := svc.HandleViolation(context.Background(), moderation.Violation{UserID: "u2", Username: "bad", Reason: "nudity"})

	require.NoError(t, err)
	assert.Nil(t, s.Expiry())
	store.AssertExpectations(t)
}

func TestService_HandleViolation_Temporary(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	svc := moderation.NewService(store, notifier)

	store.On("CreateSuspension", mock.Anything, mock.AnythingOfType("*models.Suspension")).Return(nil)
	store.On("CacheBan", mock.Anything, "u2", config.WeaponDrugSuspension).Return(assert.AnError)
	store.On("PublishKick", mock.Anything, mock.AnythingOfType("models.KickCommand")).Return(nil)
	notifier.On("NotifySuspension", mock.Anything, mock.AnythingOfType("models.Suspension")).Return(nil)

	before := time.Now()
	s, err := svc.HandleViolation(context.Background(), moderation.Violation{UserID: "u2", Reason: "weapon"})

	require.NoError(t, err, "cache failures are logged only")
	require.NotNil(t, s.Expiry())
	assert.WithinDuration(t, before.Add(config.WeaponDrugSuspension), *s.Expiry(), time.Minute)
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestService_HandleViolation_KicksLocalConnection(t *testing.T) {
	store := new(MockStore)
	kicker := new(MockKicker)
	svc := moderation.NewService(store, nil)
	svc.Kicker = kicker

	// Without redis the store publishes nothing, so only the local kick reaches the user.
	store.On("CreateSuspension", mock.Anything, mock.Anything).Return(nil)
	store.On("CacheBan", mock.Anything, "u2", time.Duration(0)).Return(nil)
	store.On("PublishKick", mock.Anything, mock.Anything).Return(nil)
	kicker.On("Kick", mock.MatchedBy(func(cmd models.KickCommand) bool {
		return cmd.UserID == "u2" && cmd.Reason == "minor on camera" && cmd.SuspensionType == models.SuspensionPermanent
	})).Return(true).Once()

	_, err := svc.HandleViolation(context.Background(), moderation.Violation{UserID: "u2", Reason: "minor on camera"})

	require.NoError(t, err)
	kicker.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestService_HandleViolation_StoreErrorSkipsKick(t *testing.T) {
	store := new(MockStore)
	kicker := new(MockKicker)
	svc := moderation.NewService(store, nil)
	svc.Kicker = kicker
	store.On("CreateSuspension", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.HandleViolation(context.Background(), moderation.Violation{UserID: "u2", Reason: "spam"})

	assert.ErrorIs(t, err, assert.AnError)
	kicker.AssertNotCalled(t, "Kick", mock.Anything)
}

func TestService_PendingReports(t *testing.T) {
	store := new(MockStore)
	svc := moderation.NewService(store, nil)
	store.On("GetReports", mock.Anything, models.ReportPending).Return([]models.Report{{ID: 1}, {ID: 2}}, nil)

	reports, err := svc.PendingReports(context.Background())

	require.NoError(t, err)
	assert.Len(t, reports, 2)
	store.AssertExpectations(t)
}

func TestService_HandleViolation_StoreError(t *testing.T) {
	store := new(MockStore)
	svc := moderation.NewService(store, nil)
	store.On("CreateSuspension", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.HandleViolation(context.Background(), moderation.Violation{UserID: "u2", Reason: "spam"})

	assert.ErrorIs(t, err, assert.AnError)
	store.AssertNotCalled(t, "PublishKick", mock.Anything, mock.Anything)

	_, err = svc.HandleViolation(context.Background(), moderation.Violation{Reason: "spam"})
	assert.ErrorIs(t, err, moderation.ErrMissingUser)
}

func TestService_Unban(t *testing.T) {
	store := new(MockStore)
	svc := moderation.NewService(store, nil)
	store.On("DeleteSuspensions", mock.Anything, "u2").Return(int64(2), nil)
	store.On("ClearBan", mock.Anything, "u2").Return(nil)

	n, err := svc.Unban(context.Background(), "u2")

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	store.AssertExpectations(t)
}

func TestService_ResolveReport(t *testing.T) {
	store := new(MockStore)
	svc := moderation.NewService(store, nil)
	store.On("UpdateReportStatus", mock.Anything, uint(4), models.ReportDismissed, "admin").Return(nil)

	require.NoError(t, svc.ResolveReport(context.Background(), 4, models.ReportDismissed, "admin"))
	assert.ErrorIs(t, svc.ResolveReport(context.Background(), 4, models.ReportPending, "admin"), moderation.ErrInvalidStatus)
	store.AssertExpectations(t)
}

func TestService_CheckSuspension(t *testing.T) {
	store := new(MockStore)
	svc := moderation.NewService(store, nil)
	store.On("GetActiveSuspension", mock.Anything, "u2", mock.AnythingOfType("time.Time")).
		Return(&models.Suspension{UserID: "u2", SuspensionType: models.SuspensionPermanent}, nil)

	s, err := svc.CheckSuspension(context.Background(), "u2")

	require.NoError(t, err)
	assert.Equal(t, "u2", s.UserID)
	_, err = svc.CheckSuspension(context.Background(), " ")
	assert.ErrorIs(t, err, moderation.ErrMissingUser)
}

func TestScheduleSweep(t *testing.T) {
	store := new(MockStore)
	svc := moderation.NewService(store, nil)
	swept := make(chan struct{}, 10)
	store.On("DeleteExpiredSuspensions", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(mock.Arguments) { swept <- struct{}{} }).
		Return(int64(1), nil)

	s, err := gocron.NewScheduler()
	require.NoError(t, err)
	_, err = moderation.ScheduleSweep(s, svc, 20*time.Millisecond)
	require.NoError(t, err)

	s.Start()
	defer s.Shutdown()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never ran")
	}
}
