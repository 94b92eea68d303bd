package storage

import (
	"context"
	"errors"
	"time"

	"wantok/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyExists      = errors.New("record already exists")
	ErrInsufficientTokens = errors.New("insufficient tokens")
)

type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	CountUsers(ctx context.Context) (int64, error)
	AddTokens(ctx context.Context, userID string, amount int) (int, error)
	DeductTokens(ctx context.Context, userID string, amount int) (int, error)
	SetTokens(ctx context.Context, userID string, tokens int) error

	CreateReport(ctx context.Context, report *models.Report) error
	GetReports(ctx context.Context, status models.ReportStatus) ([]models.Report, error)
	UpdateReportStatus(ctx context.Context, id uint, status models.ReportStatus, resolvedBy string) error

	CreateSuspension(ctx context.Context, suspension *models.Suspension) error
	GetActiveSuspension(ctx context.Context, userID string, now time.Time) (*models.Suspension, error)
	ListActiveSuspensions(ctx context.Context, now time.Time) ([]models.Suspension, error)
	DeleteSuspensions(ctx context.Context, userID string) (int64, error)
	DeleteExpiredSuspensions(ctx context.Context, now time.Time) (int64, error)

	CacheBan(ctx context.Context, userID string, ttl time.Duration) error
	ClearBan(ctx context.Context, userID string) error
	IsUserBanned(ctx context.Context, userID string) (bool, error)

	SessionStarted(ctx context.Context, session models.ChatSession) error
	SessionEnded(ctx context.Context, sessionID, reason string, endedAt time.Time) error
	CloseActiveSessions(ctx context.Context, reason string) (int64, error)

	PublishKick(ctx context.Context, cmd models.KickCommand) error
	SubscribeKicks(ctx context.Context) *redis.PubSub
}

// Service is the gorm + redis implementation of Storage. Redis may be nil (admin CLI);
// cache and pub/sub calls then become no-ops.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// AutoMigrate creates or updates every table the backend owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Report{},
		&models.Suspension{},
		&models.ChatSession{},
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
