package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"slotbook/internal/domain"
	"slotbook/internal/models"
	"slotbook/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 12, 1, 10, 0, 0, 123_000_000, time.UTC)

func insertTestBooking(t *testing.T, db *DB, id, location string, start time.Time, dur time.Duration) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ID:                    id,
		Owner:                 "u1",
		Location:              location,
		StartTime:             start,
		EndTime:               start.Add(dur),
		Phone:                 "+100",
		Email:                 "c@example.com",
		Payment:               models.DefaultPayment,
		ConfirmationTimestamp: t0.Add(-48 * time.Hour),
	}
	require.NoError(t, db.CreateBooking(context.Background(), b))
	return b
}

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := insertTestBooking(t, db, "b1", "Room A", t0, time.Hour)

	got, err := db.GetBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = db.GetBooking(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateBookingStoresInstant(t *testing.T) {
	db := setupTestDB(t)
	zone := time.FixedZone("UTC+5", 5*60*60)

	b := &models.Booking{
		ID: "z", Owner: "u1", Location: "Room A",
		StartTime: t0.In(zone), EndTime: t0.Add(time.Hour).In(zone),
		Payment: "card", ConfirmationTimestamp: t0,
	}
	require.NoError(t, db.CreateBooking(context.Background(), b))

	got, err := db.GetBooking(context.Background(), "z")
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(b.StartTime))
	assert.Equal(t, time.UTC, got.StartTime.Location())
}

func TestListBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertTestBooking(t, db, "past", "Room A", t0.Add(-3*time.Hour), time.Hour)
	insertTestBooking(t, db, "ongoing", "Room A", t0.Add(-30*time.Minute), time.Hour)
	insertTestBooking(t, db, "now", "Room B", t0, time.Hour)
	insertTestBooking(t, db, "future", "Room A", t0.Add(time.Millisecond), time.Hour)

	t.Run("StartedAtOrBeforeNow", func(t *testing.T) {
		got, err := db.ListBookings(ctx, policy.NewListQuery(t0, policy.ListOptions{}).Filter())
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "now", got[0].ID)
		assert.Equal(t, "ongoing", got[1].ID)
		assert.Equal(t, "past", got[2].ID)
	})

	t.Run("RequireOngoing", func(t *testing.T) {
		got, err := db.ListBookings(ctx, policy.NewListQuery(t0, policy.ListOptions{RequireOngoing: true}).Filter())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "now", got[0].ID)
		assert.Equal(t, "ongoing", got[1].ID)
	})

	t.Run("Empty", func(t *testing.T) {
		got, err := db.ListBookings(ctx, policy.NewListQuery(t0.Add(-24*time.Hour), policy.ListOptions{}).Filter())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestListBookingsMatchesPolicy(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var all []*models.Booking
	for i := 0; i < 20; i++ {
		start := t0.Add(time.Duration(i-10) * 17 * time.Minute)
		all = append(all, insertTestBooking(t, db, fmt.Sprintf("b%02d", i), "Room A", start, 45*time.Minute))
	}

	for _, opts := range []policy.ListOptions{{}, {RequireOngoing: true}} {
		q := policy.NewListQuery(t0, opts)
		got, err := db.ListBookings(ctx, q.Filter())
		require.NoError(t, err)
		assert.Equal(t, q.Apply(all), got)
	}
}

func TestBookingsBeyondNanosecondRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	farFuture := time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC)
	distantPast := time.Date(1600, 6, 1, 8, 30, 0, 250_000_000, time.UTC)
	future := insertTestBooking(t, db, "far-future", "Room A", farFuture, time.Hour)
	past := insertTestBooking(t, db, "distant-past", "Room A", distantPast, time.Hour)

	got, err := db.GetBooking(ctx, "far-future")
	require.NoError(t, err)
	assert.Equal(t, future, got)

	got, err = db.GetBooking(ctx, "distant-past")
	require.NoError(t, err)
	assert.Equal(t, past, got)

	list, err := db.ListBookings(ctx, policy.NewListQuery(t0, policy.ListOptions{}).Filter())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "distant-past", list[0].ID)

	overlaps, err := db.FindOverlapping(ctx, "Room A", farFuture.Add(30*time.Minute), farFuture.Add(2*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "far-future", overlaps[0].ID)
}

func TestFindOverlappingMatchesPolicy(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var all []*models.Booking
	for i := 0; i < 12; i++ {
		start := t0.Add(time.Duration(i) * 25 * time.Minute)
		all = append(all, insertTestBooking(t, db, fmt.Sprintf("b%02d", i), "Room A", start, 40*time.Minute))
	}

	start, end := t0.Add(70*time.Minute), t0.Add(130*time.Minute)
	got, err := db.FindOverlapping(ctx, "Room A", start, end, "b03")
	require.NoError(t, err)

	var want []string
	for _, b := range all {
		if b.ID != "b03" && policy.Overlaps(b.StartTime, b.EndTime, start, end) {
			want = append(want, b.ID)
		}
	}
	ids := make([]string, 0, len(got))
	for _, b := range got {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, want, ids)
}

func TestFindOverlapping(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertTestBooking(t, db, "a", "Room A", t0, time.Hour)
	insertTestBooking(t, db, "b", "Room B", t0, time.Hour)

	got, err := db.FindOverlapping(ctx, "Room A", t0.Add(30*time.Minute), t0.Add(2*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got, err = db.FindOverlapping(ctx, "Room A", t0.Add(time.Hour), t0.Add(2*time.Hour), "")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = db.FindOverlapping(ctx, "Room A", t0, t0.Add(time.Hour), "a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := insertTestBooking(t, db, "b1", "Room A", t0, time.Hour)

	updated := *b
	updated.Location = "Room C"
	updated.Payment = "card"
	updated.Owner = "someone-else"
	updated.ConfirmationTimestamp = t0
	require.NoError(t, db.UpdateBooking(ctx, &updated))

	got, err := db.GetBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Room C", got.Location)
	assert.Equal(t, "card", got.Payment)
	assert.Equal(t, b.Owner, got.Owner)
	assert.Equal(t, b.ConfirmationTimestamp, got.ConfirmationTimestamp)
	assert.Equal(t, b.Phone, got.Phone)

	missing := *b
	missing.ID = "missing"
	assert.ErrorIs(t, db.UpdateBooking(ctx, &missing), domain.ErrNotFound)
}

func TestDeleteBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertTestBooking(t, db, "b1", "Room A", t0, time.Hour)

	require.NoError(t, db.DeleteBooking(ctx, "b1"))
	_, err := db.GetBooking(ctx, "b1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, db.DeleteBooking(ctx, "b1"), domain.ErrNotFound)
}
