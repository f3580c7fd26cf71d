package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"slotbook/internal/models"
)

func listFilter(f models.BookingFilter) bson.D {
	filter := bson.D{{Key: "startTime", Value: bson.D{{Key: "$lte", Value: f.StartAtOrBefore}}}}
	if f.EndAtOrAfter != nil {
		filter = append(filter, bson.E{Key: "endTime", Value: bson.D{{Key: "$gte", Value: *f.EndAtOrAfter}}})
	}
	return filter
}

func listOptions() *options.FindOptions {
	return options.Find().SetSort(bson.D{
		{Key: "startTime", Value: -1},
		{Key: "confirmationTimestamp", Value: -1},
		{Key: "_id", Value: 1},
	})
}

// overlapFilter matches bookings at location whose [startTime, endTime) intersects [start, end).
func overlapFilter(location string, start, end time.Time, excludeID string) bson.D {
	return bson.D{
		{Key: "location", Value: location},
		{Key: "startTime", Value: bson.D{{Key: "$lt", Value: end}}},
		{Key: "endTime", Value: bson.D{{Key: "$gt", Value: start}}},
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}},
	}
}

// updateDocument sets only the mutable fields; owner and confirmationTimestamp stay as stored.
// Empty contact fields are unset so documents mirror the omitempty encoding used on insert.
func updateDocument(b *models.Booking) bson.D {
	set := bson.D{
		{Key: "location", Value: b.Location},
		{Key: "startTime", Value: b.StartTime},
		{Key: "endTime", Value: b.EndTime},
		{Key: "payment", Value: b.Payment},
	}
	unset := bson.D{}
	for _, field := range []struct {
		key   string
		value string
	}{{"phone", b.Phone}, {"email", b.Email}} {
		if field.value == "" {
			unset = append(unset, bson.E{Key: field.key, Value: ""})
		} else {
			set = append(set, bson.E{Key: field.key, Value: field.value})
		}
	}

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update
}
