package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slotbook/internal/domain"
	"slotbook/internal/models"
)

const bookingColumns = `id, owner, location, start_time, end_time, phone, email, payment, confirmed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var start, end, confirmed int64
	err := row.Scan(&b.ID, &b.Owner, &b.Location, &start, &end, &b.Phone, &b.Email, &b.Payment, &confirmed)
	if err != nil {
		return nil, err
	}
	b.StartTime = fromMillis(start)
	b.EndTime = fromMillis(end)
	b.ConfirmationTimestamp = fromMillis(confirmed)
	return &b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.Owner,
		booking.Location,
		toMillis(booking.StartTime),
		toMillis(booking.EndTime),
		booking.Phone,
		booking.Email,
		booking.Payment,
		toMillis(booking.ConfirmationTimestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// ListBookings returns the bookings inside the filter window, newest schedule first.
func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE start_time <= ?`
	args := []any{toMillis(filter.StartAtOrBefore)}
	if filter.EndAtOrAfter != nil {
		query += ` AND end_time >= ?`
		args = append(args, toMillis(*filter.EndAtOrAfter))
	}
	query += ` ORDER BY start_time DESC, confirmed_at DESC, id ASC`

	return db.queryBookings(ctx, query, args...)
}

// FindOverlapping returns bookings at location whose window intersects [start, end).
func (db *DB) FindOverlapping(ctx context.Context, location string, start, end time.Time, excludeID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE location = ? AND start_time < ? AND end_time > ? AND id <> ?
              ORDER BY start_time ASC`
	return db.queryBookings(ctx, query, location, toMillis(end), toMillis(start), excludeID)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// UpdateBooking rewrites the mutable columns; owner and confirmed_at are left as stored.
func (db *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	query := `UPDATE bookings
              SET location = ?, start_time = ?, end_time = ?, phone = ?, email = ?, payment = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		booking.Location,
		toMillis(booking.StartTime),
		toMillis(booking.EndTime),
		booking.Phone,
		booking.Email,
		booking.Payment,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
