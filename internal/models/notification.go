package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification event types emitted by exchange lifecycle transitions.
const (
	EventExchangeProposed  = "exchange_proposed"
	EventExchangeAccepted  = "exchange_accepted"
	EventExchangeRejected  = "exchange_rejected"
	EventExchangeCompleted = "exchange_completed"
	EventExchangeCancelled = "exchange_cancelled"
	EventRatingReceived    = "rating_received"
)

// Notification is one persisted message for one recipient.
type Notification struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	ExchangeID *uuid.UUID `json:"exchange_id,omitempty"`
	ChainID    *uuid.UUID `json:"chain_id,omitempty"`
	IsRead     bool       `json:"is_read"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// ExchangeEvent is the descriptor handed to the notification collaborator.
// The engine decides who gets notified; delivery happens elsewhere.
type ExchangeEvent struct {
	Type             string      `json:"event_type"`
	ExchangeID       uuid.UUID   `json:"exchange_id"`
	RecipientUserIDs []uuid.UUID `json:"recipient_user_ids"`
}

// EventForStatus maps a status transition to its notification event type.
// A cancellation of a still-pending proposal by the responder counts as a
// rejection. Statuses with no outward event return "".
func EventForStatus(previousStatus, newStatus string, actorID uuid.UUID, e *Exchange) string {
	switch newStatus {
	case ExchangeStatusAccepted:
		return EventExchangeAccepted
	case ExchangeStatusCompleted:
		return EventExchangeCompleted
	case ExchangeStatusCancelled, ExchangeStatusDisputed:
		if previousStatus == ExchangeStatusPending && actorID == e.ResponderID {
			return EventExchangeRejected
		}
		return EventExchangeCancelled
	}
	return ""
}

// NewExchangeEvent builds the event descriptor for eventType, selecting
// recipients: proposals go to the responder, acceptances and rejections to
// the initiator, completions to both parties, everything else to the
// counterpart of the acting user.
func NewExchangeEvent(eventType string, e *Exchange, actorID uuid.UUID) ExchangeEvent {
	var recipients []uuid.UUID
	switch eventType {
	case EventExchangeProposed:
		recipients = []uuid.UUID{e.ResponderID}
	case EventExchangeAccepted, EventExchangeRejected:
		recipients = []uuid.UUID{e.InitiatorID}
	case EventExchangeCompleted:
		recipients = []uuid.UUID{e.InitiatorID, e.ResponderID}
	default:
		if other := e.OtherParty(actorID); other != uuid.Nil {
			recipients = []uuid.UUID{other}
		}
	}
	return ExchangeEvent{Type: eventType, ExchangeID: e.ID, RecipientUserIDs: recipients}
}

// RenderNotification builds the stored title/message pair for an event.
// actorName is the username of whoever triggered it.
func RenderNotification(eventType, actorName string, exchangeID uuid.UUID) (title, message string) {
	switch eventType {
	case EventExchangeProposed:
		return "New Exchange Proposal", fmt.Sprintf("%s has proposed an exchange with you!", actorName)
	case EventExchangeAccepted:
		return "Exchange Accepted", fmt.Sprintf("%s has accepted your exchange proposal!", actorName)
	case EventExchangeRejected:
		return "Exchange Rejected", fmt.Sprintf("%s has declined your exchange proposal.", actorName)
	case EventExchangeCancelled:
		return "Exchange Cancelled", fmt.Sprintf("Exchange %s has been cancelled.", exchangeID)
	case EventExchangeCompleted:
		return "Exchange Completed", fmt.Sprintf("Your exchange with %s has been completed!", actorName)
	case EventRatingReceived:
		return "New Rating Received", fmt.Sprintf("You received a rating from %s!", actorName)
	}
	return "Notification", "You have a new notification."
}
