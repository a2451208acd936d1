package chain

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

// RespondToLink records a participant's accept or reject decision on their
// own link. The chain row is locked first so two concurrent final accepts
// cannot both materialize, and the link update itself is a compare-and-set
// on pending status. When the decision leaves every link accepted, one
// accepted exchange per link is created in the same transaction; a rejection
// cancels the whole chain.
func (s *ChainService) RespondToLink(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}
	chainID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid chain ID")
	}
	linkID, err := uuid.Parse(c.Params("linkId"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid link ID")
	}

	var requestData struct {
		Decision string `json:"decision"` // accept or reject
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid request body")
	}

	var newStatus string
	switch requestData.Decision {
	case "accept":
		newStatus = models.LinkStatusAccepted
	case "reject":
		newStatus = models.LinkStatusRejected
	default:
		return utils.ValidationError(c, utils.CodeInvalidInput, "Decision must be accept or reject")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("starting link response transaction: %v", err)
		return utils.InternalError(c, "Failed to record decision")
	}
	defer tx.Rollback(ctx)

	var ch models.ExchangeChain
	err = tx.QueryRow(ctx, `
		SELECT id, name, status, created_by, total_participants, total_hours, created_at, updated_at
		FROM exchange_chains
		WHERE id = $1
		FOR UPDATE
	`, chainID).Scan(&ch.ID, &ch.Name, &ch.Status, &ch.CreatedBy,
		&ch.TotalParticipants, &ch.TotalHours, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.NotFoundError(c, "Chain not found")
		}
		log.Printf("locking chain: %v", err)
		return utils.InternalError(c, "Failed to load chain")
	}
	if ch.Status != models.ChainStatusProposed && ch.Status != models.ChainStatusPending {
		return utils.ConflictError(c, utils.CodeInvalidTransition, "This chain is no longer open for decisions")
	}

	var linkOwner uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT user_id FROM chain_links WHERE id = $1 AND chain_id = $2
	`, linkID, chainID).Scan(&linkOwner)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.NotFoundError(c, "Chain link not found")
		}
		log.Printf("querying chain link: %v", err)
		return utils.InternalError(c, "Failed to load chain link")
	}
	if linkOwner != userUUID {
		return utils.AuthorizationError(c, utils.CodeWrongOwner, "You can only decide your own link")
	}

	now := time.Now()
	tag, err := tx.Exec(ctx, `
		UPDATE chain_links
		SET status = $1, decided_at = $2
		WHERE id = $3 AND status = 'pending'
	`, newStatus, now, linkID)
	if err != nil {
		log.Printf("updating chain link: %v", err)
		return utils.InternalError(c, "Failed to record decision")
	}
	if tag.RowsAffected() == 0 {
		return utils.ConflictError(c, utils.CodeLinkDecided, "This link has already been decided")
	}

	chainStatus := ch.Status
	var createdExchanges []uuid.UUID

	if newStatus == models.LinkStatusRejected {
		chainStatus = models.ChainStatusCancelled
	} else {
		links, err := loadLinksTx(ctx, tx, chainID)
		if err != nil {
			log.Printf("reloading chain links: %v", err)
			return utils.InternalError(c, "Failed to load chain links")
		}
		ch.Links = links

		if ch.AllLinksAccepted() {
			exchanges, err := ch.BuildExchanges(now)
			if err != nil {
				log.Printf("materializing chain %s: %v", ch.ID, err)
				return utils.InternalError(c, "Failed to materialize chain")
			}
			for _, e := range exchanges {
				_, err = tx.Exec(ctx, `
					INSERT INTO exchanges (id, initiator_id, responder_id, initiator_skill_id, responder_skill_id,
						initiator_hourly_rate, responder_hourly_rate, calculated_ratio,
						initiator_hours_required, responder_hours_required,
						total_value, imbalance_amount, is_balanced, status, terms,
						created_at, updated_at, accepted_at, chain_id)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
				`, e.ID, e.InitiatorID, e.ResponderID, e.InitiatorSkillID, e.ResponderSkillID,
					e.InitiatorHourlyRate, e.ResponderHourlyRate, e.CalculatedRatio,
					e.InitiatorHoursRequired, e.ResponderHoursRequired,
					e.TotalValue, e.ImbalanceAmount, e.IsBalanced, e.Status, e.Terms,
					e.CreatedAt, e.UpdatedAt, e.AcceptedAt, ch.ID)
				if err != nil {
					log.Printf("inserting chain exchange: %v", err)
					return utils.InternalError(c, "Failed to materialize chain")
				}
				createdExchanges = append(createdExchanges, e.ID)
			}
			chainStatus = models.ChainStatusAccepted
		}
	}

	if chainStatus != ch.Status {
		_, err = tx.Exec(ctx, `
			UPDATE exchange_chains SET status = $1, updated_at = $2 WHERE id = $3
		`, chainStatus, now, chainID)
		if err != nil {
			log.Printf("updating chain status: %v", err)
			return utils.InternalError(c, "Failed to update chain")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("committing link response transaction: %v", err)
		return utils.InternalError(c, "Failed to record decision")
	}

	response := fiber.Map{
		"success":      true,
		"link_status":  newStatus,
		"chain_status": chainStatus,
	}
	if len(createdExchanges) > 0 {
		response["exchange_ids"] = createdExchanges
	}
	return c.JSON(response)
}

// loadLinksTx reads a chain's links inside tx, ordered by position.
func loadLinksTx(ctx context.Context, tx pgx.Tx, chainID uuid.UUID) ([]models.ChainLink, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, chain_id, user_id, gives_offered_skill_id, gives_skill_id, receives_skill_id,
		       give_rate, receive_rate, hours_given, hours_received,
		       position, status, created_at, decided_at
		FROM chain_links
		WHERE chain_id = $1
		ORDER BY position
	`, chainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.ChainLink
	for rows.Next() {
		var l models.ChainLink
		if err := rows.Scan(&l.ID, &l.ChainID, &l.UserID, &l.GivesOfferedSkillID, &l.GivesSkillID, &l.ReceivesSkillID,
			&l.GiveRate, &l.ReceiveRate, &l.HoursGiven, &l.HoursReceived,
			&l.Position, &l.Status, &l.CreatedAt, &l.DecidedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
