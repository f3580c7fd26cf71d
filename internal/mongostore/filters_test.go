package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"slotbook/internal/models"
)

var t0 = time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

func TestListFilter(t *testing.T) {
	t.Run("StartedOnly", func(t *testing.T) {
		got := listFilter(models.BookingFilter{StartAtOrBefore: t0})
		want := bson.D{{Key: "startTime", Value: bson.D{{Key: "$lte", Value: t0}}}}
		assert.Equal(t, want, got)
	})

	t.Run("Ongoing", func(t *testing.T) {
		now := t0
		got := listFilter(models.BookingFilter{StartAtOrBefore: t0, EndAtOrAfter: &now})
		require.Len(t, got, 2)
		assert.Equal(t, "endTime", got[1].Key)
		assert.Equal(t, bson.D{{Key: "$gte", Value: t0}}, got[1].Value)
	})
}

func TestListOptionsSort(t *testing.T) {
	opts := listOptions()
	want := bson.D{
		{Key: "startTime", Value: -1},
		{Key: "confirmationTimestamp", Value: -1},
		{Key: "_id", Value: 1},
	}
	assert.Equal(t, want, opts.Sort)
}

func TestOverlapFilter(t *testing.T) {
	end := t0.Add(time.Hour)
	got := overlapFilter("Room A", t0, end, "b-1")

	assert.Equal(t, bson.D{
		{Key: "location", Value: "Room A"},
		{Key: "startTime", Value: bson.D{{Key: "$lt", Value: end}}},
		{Key: "endTime", Value: bson.D{{Key: "$gt", Value: t0}}},
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: "b-1"}}},
	}, got)
}

func TestUpdateDocument(t *testing.T) {
	b := &models.Booking{
		ID:        "b-1",
		Owner:     "u-1",
		Location:  "Room B",
		StartTime: t0,
		EndTime:   t0.Add(time.Hour),
		Phone:     "555-0100",
		Payment:   "card",
	}

	update := updateDocument(b)
	require.Len(t, update, 2)

	set, ok := update[0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, "$set", update[0].Key)
	keys := make([]string, 0, len(set))
	for _, e := range set {
		keys = append(keys, e.Key)
	}
	assert.ElementsMatch(t, []string{"location", "startTime", "endTime", "payment", "phone"}, keys)
	assert.NotContains(t, keys, "owner")
	assert.NotContains(t, keys, "confirmationTimestamp")

	assert.Equal(t, "$unset", update[1].Key)
	assert.Equal(t, bson.D{{Key: "email", Value: ""}}, update[1].Value)
}

func TestUpdateDocumentNoUnset(t *testing.T) {
	b := &models.Booking{ID: "b-1", Location: "Room A", Phone: "1", Email: "a@b.c", Payment: "in-shop"}
	update := updateDocument(b)
	require.Len(t, update, 1)
	assert.Equal(t, "$set", update[0].Key)
}

func TestNormalize(t *testing.T) {
	local := time.FixedZone("X", 3*3600)
	b := models.Booking{
		StartTime:             t0.In(local),
		EndTime:               t0.Add(time.Hour).In(local),
		ConfirmationTimestamp: t0.In(local),
	}
	normalize(&b)
	assert.Equal(t, time.UTC, b.StartTime.Location())
	assert.True(t, b.StartTime.Equal(t0))
	assert.Equal(t, time.UTC, b.EndTime.Location())
	assert.Equal(t, time.UTC, b.ConfirmationTimestamp.Location())
}
