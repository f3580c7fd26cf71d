package domain

import (
	"context"
	"time"

	"slotbook/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, id string) error
	FindOverlapping(ctx context.Context, location string, start, end time.Time, excludeID string) ([]*models.Booking, error)
}

// Repository is the full persistence surface a storage backend provides.
type Repository interface {
	UserRepository
	BookingRepository
	Ping(ctx context.Context) error
	Close() error
}

// AttemptLimiter counts events per key inside a fixed window.
type AttemptLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (models.CallerIdentity, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, caller models.CallerIdentity) (*models.User, error)
	VerifyToken(token string) (models.CallerIdentity, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, caller models.CallerIdentity, booking *models.Booking) (*models.Booking, error)
	ListBookings(ctx context.Context, caller models.CallerIdentity) ([]*models.Booking, error)
	UpdateBooking(ctx context.Context, caller models.CallerIdentity, id string, patch models.BookingPatch) (*models.Booking, error)
	DeleteBooking(ctx context.Context, caller models.CallerIdentity, id string) (*models.Booking, error)
}
