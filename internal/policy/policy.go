// Package policy decides which bookings a listing returns and who may mutate a booking.
//
// Stores push the listing and overlap rules down into SQL or BSON. Matches,
// Apply and Overlaps evaluate the same rules in memory, and the store tests
// compare query results against them.
package policy

import (
	"sort"
	"strings"
	"time"

	"slotbook/internal/domain"
	"slotbook/internal/models"
)

// ListOptions tunes the listing predicate.
type ListOptions struct {
	// RequireOngoing additionally drops bookings that already ended.
	RequireOngoing bool
}

// ListQuery is the visibility window evaluated at a single instant.
type ListQuery struct {
	Now            time.Time
	RequireOngoing bool
}

func NewListQuery(now time.Time, opts ListOptions) ListQuery {
	return ListQuery{Now: now, RequireOngoing: opts.RequireOngoing}
}

// Filter converts the query into the form stores understand.
func (q ListQuery) Filter() models.BookingFilter {
	f := models.BookingFilter{StartAtOrBefore: q.Now}
	if q.RequireOngoing {
		now := q.Now
		f.EndAtOrAfter = &now
	}
	return f
}

// Matches reports whether b is visible at q.Now. It is the in-memory form of Filter.
func (q ListQuery) Matches(b *models.Booking) bool {
	if b == nil || b.StartTime.After(q.Now) {
		return false
	}
	if q.RequireOngoing && b.EndTime.Before(q.Now) {
		return false
	}
	return true
}

// Apply filters and orders bookings in memory, producing what a store's
// ListBookings must return for the same query.
func (q ListQuery) Apply(bookings []*models.Booking) []*models.Booking {
	out := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if q.Matches(b) {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out
}

// less orders by schedule date descending, then confirmation time descending, then id.
func less(a, b *models.Booking) bool {
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.After(b.StartTime)
	}
	if !a.ConfirmationTimestamp.Equal(b.ConfirmationTimestamp) {
		return a.ConfirmationTimestamp.After(b.ConfirmationTimestamp)
	}
	return a.ID < b.ID
}

func sortBookings(bookings []*models.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return less(bookings[i], bookings[j])
	})
}

// Authorize allows a mutation only for the booking owner.
func Authorize(b *models.Booking, caller models.CallerIdentity) error {
	if b == nil {
		return domain.ErrNotFound
	}
	if caller.UserID == "" || b.Owner != caller.UserID {
		return domain.ErrUnauthorized
	}
	return nil
}

// ApplyPatch returns a copy of stored with the present patch fields replaced.
func ApplyPatch(stored models.Booking, patch models.BookingPatch, defaultPayment string) models.Booking {
	merged := stored
	if patch.Location != nil {
		merged.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.StartTime != nil {
		merged.StartTime = Instant(*patch.StartTime)
	}
	if patch.EndTime != nil {
		merged.EndTime = Instant(*patch.EndTime)
	}
	if patch.Phone != nil {
		merged.Phone = *patch.Phone
	}
	if patch.Email != nil {
		merged.Email = *patch.Email
	}
	if patch.Payment != nil {
		merged.Payment = PaymentOrDefault(*patch.Payment, defaultPayment)
	}
	return merged
}

// Instant converts t to UTC at millisecond precision, the finest precision
// every store keeps.
func Instant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func PaymentOrDefault(payment, defaultPayment string) string {
	if p := strings.TrimSpace(payment); p != "" {
		return p
	}
	if defaultPayment == "" {
		return models.DefaultPayment
	}
	return defaultPayment
}

// ValidatePatch checks the fields a patch sets.
func ValidatePatch(patch models.BookingPatch) error {
	verr := &domain.ValidationError{}
	if patch.Location != nil && strings.TrimSpace(*patch.Location) == "" {
		verr.Add("location", "location must not be empty")
	}
	if patch.StartTime != nil && patch.StartTime.IsZero() {
		verr.Add("startTime", "startTime must be a valid timestamp")
	}
	if patch.EndTime != nil && patch.EndTime.IsZero() {
		verr.Add("endTime", "endTime must be a valid timestamp")
	}
	return verr.OrNil()
}

// ValidateBooking checks a complete record before it is written.
func ValidateBooking(b *models.Booking) error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(b.Location) == "" {
		verr.Add("location", "location is required")
	}
	if b.StartTime.IsZero() {
		verr.Add("startTime", "startTime is required")
	}
	if b.EndTime.IsZero() {
		verr.Add("endTime", "endTime is required")
	}
	if !b.StartTime.IsZero() && !b.EndTime.IsZero() && !b.EndTime.After(b.StartTime) {
		verr.Add("endTime", "endTime must be after startTime")
	}
	return verr.OrNil()
}

// Overlaps reports whether two half-open windows [start, end) intersect.
// FindOverlapping in each store implements the same test as a query.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
