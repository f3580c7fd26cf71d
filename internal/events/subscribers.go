package events

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"slotbook/internal/metrics"
)

// BookingEventTypes lists the booking lifecycle events.
var BookingEventTypes = []string{EventBookingCreated, EventBookingUpdated, EventBookingDeleted}

// RegisterAuditSubscribers logs every lifecycle event and counts it in metrics.
func RegisterAuditSubscribers(bus *EventBus, logger *zerolog.Logger) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	log := logger.With().Str("component", "events").Logger()

	bus.OnError(func(event *Event, err error) {
		log.Error().Err(err).Str("event", event.Type).Msg("Event handler failed")
	})

	for _, eventType := range BookingEventTypes {
		bus.Subscribe(eventType, func(event *Event) error {
			var p BookingEventPayload
			if err := json.Unmarshal(event.Payload, &p); err != nil {
				return fmt.Errorf("decode %s payload: %w", event.Type, err)
			}
			metrics.IncBookingEvent(event.Type)
			log.Info().
				Str("event", event.Type).
				Str("booking_id", p.BookingID).
				Str("owner", p.Owner).
				Str("actor_id", p.ActorID).
				Str("location", p.Location).
				Time("start_time", p.StartTime).
				Msg("Booking event")
			return nil
		})
	}

	bus.Subscribe(EventUserRegistered, func(event *Event) error {
		var p UserEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		log.Info().Str("event", event.Type).Str("user_id", p.UserID).Msg("User registered")
		return nil
	})
}
