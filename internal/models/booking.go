package models

import "time"

type Booking struct {
	ID                    string    `json:"id" bson:"_id"`
	Owner                 string    `json:"owner" bson:"owner"`
	Location              string    `json:"location" bson:"location"`
	StartTime             time.Time `json:"startTime" bson:"startTime"`
	EndTime               time.Time `json:"endTime" bson:"endTime"`
	Phone                 string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Email                 string    `json:"email,omitempty" bson:"email,omitempty"`
	Payment               string    `json:"payment" bson:"payment"`
	ConfirmationTimestamp time.Time `json:"confirmationTimestamp" bson:"confirmationTimestamp"`
}

// BookingPatch carries a partial update. A nil field is left untouched.
type BookingPatch struct {
	Location  *string
	StartTime *time.Time
	EndTime   *time.Time
	Phone     *string
	Email     *string
	Payment   *string
}

// IsEmpty reports whether the patch changes nothing.
func (p BookingPatch) IsEmpty() bool {
	return p.Location == nil && p.StartTime == nil && p.EndTime == nil &&
		p.Phone == nil && p.Email == nil && p.Payment == nil
}

// BookingFilter is the store-level form of a listing query.
type BookingFilter struct {
	StartAtOrBefore time.Time
	// EndAtOrAfter is nil unless only ongoing bookings are wanted.
	EndAtOrAfter *time.Time
}
