package exchange

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/models"
	"github.com/lama-alharbi8/SkillSwap/internal/utils"
)

// UpdateStatus moves an exchange along its lifecycle. The row is locked for
// the duration of the transaction so concurrent transitions serialize; the
// loser of a race re-validates against the state the winner left behind.
func (s *ExchangeService) UpdateStatus(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}
	exchangeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid exchange ID")
	}

	var requestData struct {
		Status string `json:"status"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid request body")
	}
	if !models.ValidExchangeStatus(requestData.Status) {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Unknown exchange status")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("starting status transaction: %v", err)
		return utils.InternalError(c, "Failed to update exchange")
	}
	defer tx.Rollback(ctx)

	e, err := loadExchangeForUpdate(ctx, tx, exchangeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.NotFoundError(c, "Exchange not found")
		}
		log.Printf("locking exchange: %v", err)
		return utils.InternalError(c, "Failed to load exchange")
	}
	if !e.IsParticipant(userUUID) {
		return utils.AuthorizationError(c, utils.CodeNotParticipant, "Only participants can update this exchange")
	}
	if !e.CanTransitionTo(requestData.Status) {
		return utils.ConflictError(c, utils.CodeInvalidTransition,
			"Cannot move exchange from "+e.Status+" to "+requestData.Status)
	}

	prevStatus := e.Status
	e.ApplyStatus(requestData.Status, time.Now())

	_, err = tx.Exec(ctx, `
		UPDATE exchanges
		SET status = $1, updated_at = $2, accepted_at = $3, started_at = $4, completed_at = $5, closed_at = $6
		WHERE id = $7
	`, e.Status, e.UpdatedAt, e.AcceptedAt, e.StartedAt, e.CompletedAt, e.ClosedAt, e.ID)
	if err != nil {
		log.Printf("updating exchange status: %v", err)
		return utils.InternalError(c, "Failed to update exchange")
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("committing status transaction: %v", err)
		return utils.InternalError(c, "Failed to update exchange")
	}

	if eventType := models.EventForStatus(prevStatus, e.Status, userUUID, &e); eventType != "" {
		event := models.NewExchangeEvent(eventType, &e, userUUID)
		s.dispatcher.DispatchExchangeEvent(ctx, event, s.username(ctx, userUUID))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"status":  e.Status,
	})
}

// SubmitRating records a 1-5 rating with optional feedback. Only completed
// exchanges can be rated, each party exactly once.
func (s *ExchangeService) SubmitRating(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}
	exchangeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid exchange ID")
	}

	var requestData struct {
		Rating   int    `json:"rating"`
		Feedback string `json:"feedback"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid request body")
	}
	if requestData.Rating < 1 || requestData.Rating > 5 {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Rating must be between 1 and 5")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("starting rating transaction: %v", err)
		return utils.InternalError(c, "Failed to save rating")
	}
	defer tx.Rollback(ctx)

	e, err := loadExchangeForUpdate(ctx, tx, exchangeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.NotFoundError(c, "Exchange not found")
		}
		log.Printf("locking exchange: %v", err)
		return utils.InternalError(c, "Failed to load exchange")
	}
	if !e.IsParticipant(userUUID) {
		return utils.AuthorizationError(c, utils.CodeNotParticipant, "Only participants can rate this exchange")
	}
	if e.Status != models.ExchangeStatusCompleted {
		return utils.ConflictError(c, utils.CodeNotCompleted, "Only completed exchanges can be rated")
	}

	var column, feedbackColumn string
	if userUUID == e.InitiatorID {
		if e.InitiatorRating != nil {
			return utils.ConflictError(c, utils.CodeAlreadyRated, "You already rated this exchange")
		}
		column, feedbackColumn = "initiator_rating", "initiator_feedback"
	} else {
		if e.ResponderRating != nil {
			return utils.ConflictError(c, utils.CodeAlreadyRated, "You already rated this exchange")
		}
		column, feedbackColumn = "responder_rating", "responder_feedback"
	}

	_, err = tx.Exec(ctx, `
		UPDATE exchanges
		SET `+column+` = $1, `+feedbackColumn+` = $2, updated_at = NOW()
		WHERE id = $3
	`, requestData.Rating, requestData.Feedback, e.ID)
	if err != nil {
		log.Printf("saving rating: %v", err)
		return utils.InternalError(c, "Failed to save rating")
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("committing rating transaction: %v", err)
		return utils.InternalError(c, "Failed to save rating")
	}

	event := models.NewExchangeEvent(models.EventRatingReceived, &e, userUUID)
	s.dispatcher.DispatchExchangeEvent(ctx, event, s.username(ctx, userUUID))

	return c.JSON(fiber.Map{"success": true})
}

// RecalculateExchange re-reads both offers' current rates and rebuilds the
// hour split snapshot. Only participants may trigger it, and only while the
// exchange has not reached a terminal state.
func (s *ExchangeService) RecalculateExchange(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}
	exchangeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid exchange ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("starting recalculation transaction: %v", err)
		return utils.InternalError(c, "Failed to recalculate")
	}
	defer tx.Rollback(ctx)

	e, err := loadExchangeForUpdate(ctx, tx, exchangeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.NotFoundError(c, "Exchange not found")
		}
		log.Printf("locking exchange: %v", err)
		return utils.InternalError(c, "Failed to load exchange")
	}
	if !e.IsParticipant(userUUID) {
		return utils.AuthorizationError(c, utils.CodeNotParticipant, "Only participants can recalculate this exchange")
	}
	if e.IsTerminal() {
		return utils.ConflictError(c, utils.CodeInvalidTransition, "Closed exchanges cannot be recalculated")
	}

	var initiatorRate, responderRate float64
	err = tx.QueryRow(ctx, `
		SELECT hourly_rate_equivalent FROM offered_skills WHERE id = $1
	`, e.InitiatorSkillID).Scan(&initiatorRate)
	if err == nil {
		err = tx.QueryRow(ctx, `
			SELECT hourly_rate_equivalent FROM offered_skills WHERE id = $1
		`, e.ResponderSkillID).Scan(&responderRate)
	}
	if err != nil {
		log.Printf("reading current rates: %v", err)
		return utils.InternalError(c, "Failed to read current rates")
	}

	e.Recalculate(initiatorRate, responderRate)

	_, err = tx.Exec(ctx, `
		UPDATE exchanges
		SET initiator_hourly_rate = $1, responder_hourly_rate = $2, calculated_ratio = $3,
		    initiator_hours_required = $4, responder_hours_required = $5,
		    total_value = $6, imbalance_amount = $7, is_balanced = $8, updated_at = NOW()
		WHERE id = $9
	`, e.InitiatorHourlyRate, e.ResponderHourlyRate, e.CalculatedRatio,
		e.InitiatorHoursRequired, e.ResponderHoursRequired,
		e.TotalValue, e.ImbalanceAmount, e.IsBalanced, e.ID)
	if err != nil {
		log.Printf("saving recalculation: %v", err)
		return utils.InternalError(c, "Failed to save recalculation")
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("committing recalculation transaction: %v", err)
		return utils.InternalError(c, "Failed to save recalculation")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"exchange": e,
		"report":   e.DetailedFairnessReport(),
	})
}

// loadExchangeForUpdate reads an exchange inside tx with a row lock.
func loadExchangeForUpdate(ctx context.Context, tx pgx.Tx, exchangeID uuid.UUID) (models.Exchange, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, initiator_id, responder_id, initiator_skill_id, responder_skill_id,
		       initiator_hourly_rate, responder_hourly_rate, calculated_ratio,
		       initiator_hours_required, responder_hours_required,
		       total_value, imbalance_amount, is_balanced, status, terms,
		       created_at, updated_at, accepted_at, started_at, completed_at, closed_at,
		       initiator_rating, responder_rating
		FROM exchanges
		WHERE id = $1
		FOR UPDATE
	`, exchangeID)
	return scanExchange(row)
}
