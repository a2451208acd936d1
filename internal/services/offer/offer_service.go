package offer

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lama-alharbi8/SkillSwap/internal/config"
	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/models"
	"github.com/lama-alharbi8/SkillSwap/internal/utils"
)

// OfferService manages offered and needed skill records.
type OfferService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewOfferService creates the service.
func NewOfferService(cfg *config.Config) *OfferService {
	return &OfferService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreateOffer registers an offered skill. At most one active offer may
// exist per (user, skill) pair.
func (s *OfferService) CreateOffer(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	var requestData struct {
		SkillID              string  `json:"skill_id"`
		Description          string  `json:"description"`
		Availability         string  `json:"availability"`
		HourlyRateEquivalent float64 `json:"hourly_rate_equivalent"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("decoding create offer request: %v", err)
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid request body")
	}

	skillID, err := uuid.Parse(requestData.SkillID)
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid skill ID")
	}
	if requestData.HourlyRateEquivalent <= 0 {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Hourly rate must be positive")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var exists bool
	err = db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM skills WHERE id = $1)
	`, skillID).Scan(&exists)
	if err != nil {
		log.Printf("checking skill existence: %v", err)
		return utils.InternalError(c, "Failed to verify skill")
	}
	if !exists {
		return utils.NotFoundError(c, "Skill not found")
	}

	err = db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM offered_skills WHERE user_id = $1 AND skill_id = $2 AND is_active = true)
	`, userUUID, skillID).Scan(&exists)
	if err != nil {
		log.Printf("checking duplicate offer: %v", err)
		return utils.InternalError(c, "Failed to verify offer")
	}
	if exists {
		return utils.ConflictError(c, utils.CodeDuplicateActive, "You already have an active offer for this skill")
	}

	offerID := uuid.New()
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO offered_skills (id, user_id, skill_id, description, availability, hourly_rate_equivalent, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
	`, offerID, userUUID, skillID, requestData.Description, requestData.Availability, requestData.HourlyRateEquivalent)
	if err != nil {
		log.Printf("inserting offer: %v", err)
		return utils.InternalError(c, "Failed to save offer")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"offer_id": offerID,
	})
}

// ListOffers returns active offers. Defaults to the caller's own; pass
// skill_id to browse providers of a skill, or user_id for another user's.
func (s *OfferService) ListOffers(c fiber.Ctx) error {
	callerID := c.Locals("userID").(string)

	ctx, cancel := db.GetContext()
	defer cancel()

	query := `
		SELECT o.id, o.user_id, o.skill_id, o.description, o.availability,
		       o.hourly_rate_equivalent, o.is_active, o.created_at, o.updated_at,
		       s.name, s.proficiency_level, u.username
		FROM offered_skills o
		JOIN skills s ON s.id = o.skill_id
		JOIN users u ON u.id = o.user_id
		WHERE o.is_active = true
	`
	var args []interface{}

	if skillID := c.Query("skill_id"); skillID != "" {
		skillUUID, err := uuid.Parse(skillID)
		if err != nil {
			return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid skill ID")
		}
		query += ` AND o.skill_id = $1 ORDER BY o.hourly_rate_equivalent ASC`
		args = []interface{}{skillUUID}
	} else {
		targetID := c.Query("user_id", callerID)
		targetUUID, err := uuid.Parse(targetID)
		if err != nil {
			return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
		}
		query += ` AND o.user_id = $1 ORDER BY o.created_at DESC`
		args = []interface{}{targetUUID}
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("querying offers: %v", err)
		return utils.InternalError(c, "Failed to load offers")
	}
	defer rows.Close()

	offers := []models.OfferedSkill{}
	for rows.Next() {
		var o models.OfferedSkill
		var skillName, proficiency, username string
		if err := rows.Scan(&o.ID, &o.UserID, &o.SkillID, &o.Description, &o.Availability,
			&o.HourlyRateEquivalent, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
			&skillName, &proficiency, &username); err != nil {
			log.Printf("scanning offer: %v", err)
			continue
		}
		o.Skill = &models.Skill{ID: o.SkillID, Name: skillName, Proficiency: proficiency}
		o.User = &models.User{ID: o.UserID, Username: username}
		offers = append(offers, o)
	}

	return c.JSON(fiber.Map{
		"offers": offers,
		"count":  len(offers),
	})
}

// UpdateOffer changes an offer's description, availability or rate. Rate
// changes do not touch existing exchange snapshots; those stay as
// calculated until someone requests a recalculation.
func (s *OfferService) UpdateOffer(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}
	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid offer ID")
	}

	var requestData struct {
		Description          *string  `json:"description"`
		Availability         *string  `json:"availability"`
		HourlyRateEquivalent *float64 `json:"hourly_rate_equivalent"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid request body")
	}
	if requestData.HourlyRateEquivalent != nil && *requestData.HourlyRateEquivalent <= 0 {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Hourly rate must be positive")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var ownerID uuid.UUID
	err = db.Pool.QueryRow(ctx, `SELECT user_id FROM offered_skills WHERE id = $1`, offerID).Scan(&ownerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.NotFoundError(c, "Offer not found")
		}
		log.Printf("querying offer owner: %v", err)
		return utils.InternalError(c, "Failed to load offer")
	}
	if ownerID != userUUID {
		return utils.AuthorizationError(c, utils.CodeWrongOwner, "You can only update your own offers")
	}

	_, err = db.Pool.Exec(ctx, `
		UPDATE offered_skills
		SET description = COALESCE($1, description),
		    availability = COALESCE($2, availability),
		    hourly_rate_equivalent = COALESCE($3, hourly_rate_equivalent),
		    updated_at = NOW()
		WHERE id = $4
	`, requestData.Description, requestData.Availability, requestData.HourlyRateEquivalent, offerID)
	if err != nil {
		log.Printf("updating offer: %v", err)
		return utils.InternalError(c, "Failed to update offer")
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeactivateOffer withdraws an offer. Offers are never deleted, only
// deactivated, so historical exchanges keep their references.
func (s *OfferService) DeactivateOffer(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}
	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid offer ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
		UPDATE offered_skills
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_active = true
	`, offerID, userUUID)
	if err != nil {
		log.Printf("deactivating offer: %v", err)
		return utils.InternalError(c, "Failed to deactivate offer")
	}
	if tag.RowsAffected() == 0 {
		return utils.NotFoundError(c, "Active offer not found")
	}

	return c.JSON(fiber.Map{"success": true})
}
