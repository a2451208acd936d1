package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/models"
	"github.com/lama-alharbi8/SkillSwap/internal/websocket"
)

// Dispatcher turns the typed events returned by lifecycle transitions into
// persisted notification rows and realtime pushes. Delivery failures are
// logged, never propagated: a missed notification must not fail the
// transition that produced it.
type Dispatcher struct {
	ws *websocket.Manager
}

// NewDispatcher creates a Dispatcher pushing through ws (may be nil in tests).
func NewDispatcher(ws *websocket.Manager) *Dispatcher {
	return &Dispatcher{ws: ws}
}

// DispatchExchangeEvent fans an exchange event out to its recipients.
// actorName is the username of whoever triggered the transition.
func (d *Dispatcher) DispatchExchangeEvent(ctx context.Context, event models.ExchangeEvent, actorName string) {
	if event.Type == "" {
		return
	}

	title, message := models.RenderNotification(event.Type, actorName, event.ExchangeID)

	for _, recipientID := range event.RecipientUserIDs {
		n := models.Notification{
			ID:         uuid.New(),
			UserID:     recipientID,
			Type:       event.Type,
			Title:      title,
			Message:    message,
			ExchangeID: &event.ExchangeID,
			CreatedAt:  time.Now(),
		}

		_, err := db.Pool.Exec(ctx, `
			INSERT INTO notifications (id, user_id, type, title, message, exchange_id, is_read, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, false, $7)
		`, n.ID, n.UserID, n.Type, n.Title, n.Message, n.ExchangeID, n.CreatedAt)
		if err != nil {
			log.Printf("persisting notification for %s: %v", recipientID, err)
			continue
		}

		d.push(recipientID, n)
	}
}

// push sends the realtime frame to whatever sockets the recipient has open.
func (d *Dispatcher) push(recipientID uuid.UUID, n models.Notification) {
	if d.ws == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("marshaling notification payload: %v", err)
		return
	}
	event := websocket.Event{
		Type:      websocket.EventNotification,
		UserID:    recipientID.String(),
		Timestamp: n.CreatedAt,
		Payload:   payload,
	}
	if n.ExchangeID != nil {
		event.ExchangeID = n.ExchangeID.String()
	}
	d.ws.SendToUser(recipientID.String(), event)
}
