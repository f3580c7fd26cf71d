package service

import (
	"context"
	"io"
	"testing"
	"time"

	"slotbook/internal/auth"
	"slotbook/internal/config"
	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/models"
	"slotbook/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestBookingLifecycle runs the services against SQLite in memory.
func TestBookingLifecycle(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	bus := events.NewEventBus()
	var published []string
	for _, et := range events.BookingEventTypes {
		bus.Subscribe(et, func(e *events.Event) error {
			published = append(published, e.Type)
			return nil
		})
	}

	users := NewUserService(db, auth.NewHasher(bcrypt.MinCost), auth.NewTokenManager(testSecret, time.Hour, "slotbook"),
		repository.NewMemoryAttemptLimiter(), bus, config.AuthConfig{}, &logger)
	bookings := NewBookingService(db, bus, config.BookingsConfig{}, &logger)

	alice, err := users.Register(ctx, "alice@example.com", "pw-alice")
	require.NoError(t, err)
	bob, err := users.Register(ctx, "bob@example.com", "pw-bob")
	require.NoError(t, err)

	_, err = users.Register(ctx, "ALICE@example.com", "again")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	token, err := users.Authenticate(ctx, "alice@example.com", "pw-alice")
	require.NoError(t, err)
	caller, err := users.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, caller.UserID)

	bookings.now = func() time.Time { return t0.Add(-time.Hour) }
	created, err := bookings.CreateBooking(ctx, caller, &models.Booking{
		Location: "Room A", StartTime: t0, EndTime: t0.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, created.Owner)
	assert.Equal(t, "in-shop", created.Payment)

	bookings.now = func() time.Time { return t0.Add(-30 * time.Minute) }
	list, err := bookings.ListBookings(ctx, caller)
	require.NoError(t, err)
	assert.Empty(t, list)

	bookings.now = func() time.Time { return t0.Add(30 * time.Minute) }
	list, err = bookings.ListBookings(ctx, models.CallerIdentity{UserID: bob.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	bobCaller := models.CallerIdentity{UserID: bob.ID}
	_, err = bookings.UpdateBooking(ctx, bobCaller, created.ID, models.BookingPatch{Location: strPtr("Room Z")})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	unchanged, err := db.GetBooking(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Room A", unchanged.Location)

	updated, err := bookings.UpdateBooking(ctx, caller, created.ID, models.BookingPatch{Phone: strPtr("555-0100")})
	require.NoError(t, err)
	assert.Equal(t, "Room A", updated.Location)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.True(t, updated.ConfirmationTimestamp.Equal(created.ConfirmationTimestamp))

	_, err = bookings.DeleteBooking(ctx, bobCaller, created.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	deleted, err := bookings.DeleteBooking(ctx, caller, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", deleted.Phone)

	_, err = bookings.DeleteBooking(ctx, caller, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{events.EventBookingCreated, events.EventBookingUpdated, events.EventBookingDeleted}, published)
}

func TestFarFutureBookingStaysHidden(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	bookings := NewBookingService(db, nil, config.BookingsConfig{}, &logger)
	bookings.now = func() time.Time { return t0 }

	farFuture := time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC)
	created, err := bookings.CreateBooking(ctx, u1, &models.Booking{
		Location: "Room A", StartTime: farFuture, EndTime: farFuture.Add(time.Hour),
	})
	require.NoError(t, err)

	stored, err := db.GetBooking(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.StartTime.Equal(farFuture))
	assert.True(t, stored.EndTime.Equal(farFuture.Add(time.Hour)))

	list, err := bookings.ListBookings(ctx, u1)
	require.NoError(t, err)
	assert.Empty(t, list)

	bookings.now = func() time.Time { return farFuture.Add(time.Minute) }
	list, err = bookings.ListBookings(ctx, u1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}
