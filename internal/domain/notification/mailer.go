package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spacehub/spacehub-api/internal/domain/booking"
	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/pkg/email"
)

// Queuer accepts emails for asynchronous delivery
type Queuer interface {
	Queue(to, toName, templateName, subject string, data interface{})
}

// RoomReader loads the booked room for email content
type RoomReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*room.Room, error)
}

type recipient int

const (
	toGuest recipient = iota
	toHost
)

type message struct {
	to       recipient
	template string
	subject  string
}

var messages = map[booking.EventType][]message{
	booking.EventCreated: {
		{toGuest, email.TemplateBookingCreated, "Your booking request was sent"},
		{toHost, email.TemplateBookingRequested, "New booking request"},
	},
	booking.EventConfirmed:       {{toGuest, email.TemplateBookingConfirmed, "Your booking is confirmed"}},
	booking.EventRejected:        {{toGuest, email.TemplateBookingRejected, "Your booking was declined"}},
	booking.EventPaymentReceived: {{toGuest, email.TemplatePaymentReceived, "Payment received"}},
	booking.EventCompleted:       {{toGuest, email.TemplateBookingCompleted, "Thanks for staying"}},
	booking.EventCancelled: {
		{toGuest, email.TemplateBookingCancelled, "Booking cancelled"},
		{toHost, email.TemplateBookingCancelled, "Booking cancelled"},
	},
}

// BookingMailer emails guests and hosts about booking events
type BookingMailer struct {
	emails  Queuer
	users   user.Repository
	rooms   RoomReader
	baseURL string
}

// NewBookingMailer creates a mailer. baseURL is the web app root used for links.
func NewBookingMailer(emails Queuer, users user.Repository, rooms RoomReader, baseURL string) *BookingMailer {
	return &BookingMailer{emails: emails, users: users, rooms: rooms, baseURL: baseURL}
}

// Notify implements booking.Notifier. Lookups happen off the request path.
func (m *BookingMailer) Notify(ctx context.Context, event booking.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		m.deliver(ctx, event)
	}()
}

func (m *BookingMailer) deliver(ctx context.Context, event booking.Event) {
	b := event.Booking
	plan, ok := messages[event.Type]
	if !ok || b == nil {
		return
	}

	title := "your space"
	if r, err := m.rooms.GetByID(ctx, b.RoomID); err == nil {
		title = r.Title
	} else {
		log.Warn().Err(err).Str("room_id", b.RoomID.String()).Msg("Room lookup failed for booking email")
	}

	for _, msg := range plan {
		userID := b.GuestID
		if msg.to == toHost {
			userID = b.HostID
		}
		// the actor already knows
		if event.Type == booking.EventCancelled && userID == event.Actor.ID {
			continue
		}

		u, err := m.users.GetByID(ctx, userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Str("event", string(event.Type)).Msg("Failed to load email recipient")
			continue
		}

		data := email.BookingData{
			RecipientName: u.DisplayName(),
			RoomTitle:     title,
			CheckIn:       b.CheckIn.String(),
			CheckOut:      b.CheckOut.String(),
			Total:         b.TotalPrice.StringFixed(2),
			Reason:        event.Reason,
			BookingURL:    m.baseURL + "/bookings/" + b.ID.String(),
		}
		if b.RefundAmount.Valid && b.RefundAmount.Decimal.IsPositive() {
			data.RefundAmount = b.RefundAmount.Decimal.StringFixed(2)
		}

		m.emails.Queue(u.Email, u.DisplayName(), msg.template, msg.subject, data)
	}

	log.Debug().Str("booking_id", b.ID.String()).Str("event", string(event.Type)).Msg("Booking emails queued")
}
