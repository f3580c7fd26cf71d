package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"slotbook/internal/config"
	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/models"
	"slotbook/internal/policy"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.BookingRepository
	eventBus domain.EventPublisher
	config   config.BookingsConfig
	logger   *zerolog.Logger
	now      func() time.Time
}

var _ domain.BookingService = (*BookingService)(nil)

func NewBookingService(repo domain.BookingRepository, eventBus domain.EventPublisher, cfg config.BookingsConfig, logger *zerolog.Logger) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.DefaultPayment == "" {
		cfg.DefaultPayment = models.DefaultPayment
	}
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBooking stores a new booking owned by caller. Id, owner and
// confirmation time are always assigned here.
func (s *BookingService) CreateBooking(ctx context.Context, caller models.CallerIdentity, booking *models.Booking) (*models.Booking, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	b := &models.Booking{
		ID:                    uuid.NewString(),
		Owner:                 caller.UserID,
		Location:              strings.TrimSpace(booking.Location),
		StartTime:             policy.Instant(booking.StartTime),
		EndTime:               policy.Instant(booking.EndTime),
		Phone:                 booking.Phone,
		Email:                 booking.Email,
		Payment:               policy.PaymentOrDefault(booking.Payment, s.config.DefaultPayment),
		ConfirmationTimestamp: policy.Instant(s.now()),
	}
	if err := policy.ValidateBooking(b); err != nil {
		return nil, err
	}
	if err := s.checkCollision(ctx, b); err != nil {
		return nil, err
	}

	if err := s.repo.CreateBooking(ctx, b); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, b, caller.UserID)
	return b, nil
}

// ListBookings returns every booking that has started by now, newest schedule first.
func (s *BookingService) ListBookings(ctx context.Context, caller models.CallerIdentity) ([]*models.Booking, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	query := policy.NewListQuery(policy.Instant(s.now()), policy.ListOptions{RequireOngoing: s.config.RequireOngoing})
	return s.repo.ListBookings(ctx, query.Filter())
}

func (s *BookingService) UpdateBooking(ctx context.Context, caller models.CallerIdentity, id string, patch models.BookingPatch) (*models.Booking, error) {
	stored, err := s.ownedBooking(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := policy.ValidatePatch(patch); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return stored, nil
	}

	merged := policy.ApplyPatch(*stored, patch, s.config.DefaultPayment)
	if err := policy.ValidateBooking(&merged); err != nil {
		return nil, err
	}
	if patch.Location != nil || patch.StartTime != nil || patch.EndTime != nil {
		if err := s.checkCollision(ctx, &merged); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateBooking(ctx, &merged); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingUpdated, &merged, caller.UserID)
	return &merged, nil
}

// DeleteBooking removes the booking and returns its last state.
func (s *BookingService) DeleteBooking(ctx context.Context, caller models.CallerIdentity, id string) (*models.Booking, error) {
	stored, err := s.ownedBooking(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingDeleted, stored, caller.UserID)
	return stored, nil
}

func (s *BookingService) ownedBooking(ctx context.Context, caller models.CallerIdentity, id string) (*models.Booking, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	stored, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(stored, caller); err != nil {
		s.logger.Warn().
			Str("booking_id", id).
			Str("caller", caller.UserID).
			Msg("Rejected mutation by non-owner")
		return nil, err
	}
	return stored, nil
}

func (s *BookingService) checkCollision(ctx context.Context, b *models.Booking) error {
	if !s.config.CollisionCheck {
		return nil
	}
	overlapping, err := s.repo.FindOverlapping(ctx, b.Location, b.StartTime, b.EndTime, b.ID)
	if err != nil {
		return fmt.Errorf("check overlapping bookings: %w", err)
	}
	if len(overlapping) > 0 {
		return domain.ErrConflict
	}
	return nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actorID string) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, events.NewBookingPayload(booking, actorID)); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}
