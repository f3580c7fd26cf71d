package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"slotbook/internal/auth"
	"slotbook/internal/config"
	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/models"
	"slotbook/internal/policy"
	"slotbook/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type seedUser struct {
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Bookings []seedBooking `yaml:"bookings"`
}

type seedBooking struct {
	Location  string    `yaml:"location"`
	StartTime time.Time `yaml:"start_time"`
	EndTime   time.Time `yaml:"end_time"`
	Phone     string    `yaml:"phone"`
	Email     string    `yaml:"email"`
	Payment   string    `yaml:"payment"`
}

type seedFile struct {
	Users []seedUser `yaml:"users"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = pflag.String("seed", "configs/seed.yaml", "path to seed.yaml")
		dbPath   = pflag.String("db", "./data/slotbook.db", "path to sqlite db")
	)
	pflag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed seedFile
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if len(seed.Users) == 0 {
		return fmt.Errorf("no users in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	users := service.NewUserService(db, auth.NewHasher(0), nil, nil, nil, config.AuthConfig{}, &logger)
	bookings := service.NewBookingService(db, nil, config.BookingsConfig{}, &logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registered, created, skipped := 0, 0, 0
	for _, su := range seed.Users {
		user, err := users.Register(ctx, su.Email, su.Password)
		switch {
		case err == nil:
			registered++
		case errors.Is(err, domain.ErrDuplicateEmail):
			user, err = db.GetUserByEmail(ctx, service.NormalizeEmail(su.Email))
			if err != nil {
				return fmt.Errorf("get %s: %w", su.Email, err)
			}
		default:
			return fmt.Errorf("register %s: %w", su.Email, err)
		}

		caller := models.CallerIdentity{UserID: user.ID}
		for _, sb := range su.Bookings {
			exists, err := alreadySeeded(ctx, db, user.ID, sb)
			if err != nil {
				return err
			}
			if exists {
				skipped++
				continue
			}
			_, err = bookings.CreateBooking(ctx, caller, &models.Booking{
				Location:  sb.Location,
				StartTime: sb.StartTime,
				EndTime:   sb.EndTime,
				Phone:     sb.Phone,
				Email:     sb.Email,
				Payment:   sb.Payment,
			})
			if err != nil {
				return fmt.Errorf("create booking %s for %s: %w", sb.Location, su.Email, err)
			}
			created++
		}
	}

	fmt.Printf("done: users=%d bookings=%d skipped=%d\n", registered, created, skipped)
	return nil
}

// alreadySeeded reports whether the owner already holds this exact slot.
func alreadySeeded(ctx context.Context, db *database.DB, owner string, sb seedBooking) (bool, error) {
	found, err := db.FindOverlapping(ctx, sb.Location, sb.StartTime, sb.EndTime, "")
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", sb.Location, err)
	}
	start, end := policy.Instant(sb.StartTime), policy.Instant(sb.EndTime)
	for _, b := range found {
		if b.Owner == owner && b.StartTime.Equal(start) && b.EndTime.Equal(end) {
			return true, nil
		}
	}
	return false, nil
}
