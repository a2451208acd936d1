package offer

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/models"
	"github.com/lama-alharbi8/SkillSwap/internal/utils"
)

// CreateNeed registers a needed skill, mirroring CreateOffer's uniqueness
// rule: one active need per (user, skill) pair.
func (s *OfferService) CreateNeed(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	var requestData struct {
		SkillID       string  `json:"skill_id"`
		Description   string  `json:"description"`
		Urgency       string  `json:"urgency"`
		MaxHourlyRate float64 `json:"max_hourly_rate"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("decoding create need request: %v", err)
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid request body")
	}

	skillID, err := uuid.Parse(requestData.SkillID)
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid skill ID")
	}
	if requestData.Urgency == "" {
		requestData.Urgency = models.UrgencyMedium
	}
	if !models.ValidUrgency(requestData.Urgency) {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Unknown urgency level")
	}
	if requestData.MaxHourlyRate < 0 {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Rate ceiling cannot be negative")
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
		SELECT EXISTS(SELECT 1 FROM needed_skills WHERE user_id = $1 AND skill_id = $2 AND is_active = true)
	`, userUUID, skillID).Scan(&exists)
	if err != nil {
		log.Printf("checking duplicate need: %v", err)
		return utils.InternalError(c, "Failed to verify need")
	}
	if exists {
		return utils.ConflictError(c, utils.CodeDuplicateActive, "You already have an active need for this skill")
	}

	needID := uuid.New()
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO needed_skills (id, user_id, skill_id, description, urgency, max_hourly_rate, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
	`, needID, userUUID, skillID, requestData.Description, requestData.Urgency, requestData.MaxHourlyRate)
	if err != nil {
		log.Printf("inserting need: %v", err)
		return utils.InternalError(c, "Failed to save need")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"need_id": needID,
	})
}

// ListNeeds returns active needs, the caller's own by default. Pass
// skill_id to browse users needing a skill, or user_id for another user's.
func (s *OfferService) ListNeeds(c fiber.Ctx) error {
	callerID := c.Locals("userID").(string)

	ctx, cancel := db.GetContext()
	defer cancel()

	query := `
		SELECT n.id, n.user_id, n.skill_id, n.description, n.urgency,
		       n.max_hourly_rate, n.is_active, n.created_at, n.updated_at,
		       s.name, u.username
		FROM needed_skills n
		JOIN skills s ON s.id = n.skill_id
		JOIN users u ON u.id = n.user_id
		WHERE n.is_active = true
	`
	var args []interface{}

	if skillID := c.Query("skill_id"); skillID != "" {
		skillUUID, err := uuid.Parse(skillID)
		if err != nil {
			return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid skill ID")
		}
		query += ` AND n.skill_id = $1 ORDER BY n.created_at DESC`
		args = []interface{}{skillUUID}
	} else {
		targetID := c.Query("user_id", callerID)
		targetUUID, err := uuid.Parse(targetID)
		if err != nil {
			return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
		}
		query += ` AND n.user_id = $1 ORDER BY n.created_at DESC`
		args = []interface{}{targetUUID}
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("querying needs: %v", err)
		return utils.InternalError(c, "Failed to load needs")
	}
	defer rows.Close()

	needs := []models.NeededSkill{}
	for rows.Next() {
		var n models.NeededSkill
		var skillName, username string
		if err := rows.Scan(&n.ID, &n.UserID, &n.SkillID, &n.Description, &n.Urgency,
			&n.MaxHourlyRate, &n.IsActive, &n.CreatedAt, &n.UpdatedAt,
			&skillName, &username); err != nil {
			log.Printf("scanning need: %v", err)
			continue
		}
		n.Skill = &models.Skill{ID: n.SkillID, Name: skillName}
		n.User = &models.User{ID: n.UserID, Username: username}
		needs = append(needs, n)
	}

	return c.JSON(fiber.Map{
		"needs": needs,
		"count": len(needs),
	})
}

// UpdateNeed changes a need's description, urgency or rate ceiling.
func (s *OfferService) UpdateNeed(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}
	needID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid need ID")
	}

	var requestData struct {
		Description   *string  `json:"description"`
		Urgency       *string  `json:"urgency"`
		MaxHourlyRate *float64 `json:"max_hourly_rate"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid request body")
	}
	if requestData.Urgency != nil && !models.ValidUrgency(*requestData.Urgency) {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Unknown urgency level")
	}
	if requestData.MaxHourlyRate != nil && *requestData.MaxHourlyRate < 0 {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Rate ceiling cannot be negative")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
		UPDATE needed_skills
		SET description = COALESCE($1, description),
		    urgency = COALESCE($2, urgency),
		    max_hourly_rate = COALESCE($3, max_hourly_rate),
		    updated_at = NOW()
		WHERE id = $4 AND user_id = $5
	`, requestData.Description, requestData.Urgency, requestData.MaxHourlyRate, needID, userUUID)
	if err != nil {
		log.Printf("updating need: %v", err)
		return utils.InternalError(c, "Failed to update need")
	}
	if tag.RowsAffected() == 0 {
		return utils.NotFoundError(c, "Need not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeactivateNeed withdraws a need without deleting it.
func (s *OfferService) DeactivateNeed(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}
	needID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid need ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
		UPDATE needed_skills
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_active = true
	`, needID, userUUID)
	if err != nil {
		log.Printf("deactivating need: %v", err)
		return utils.InternalError(c, "Failed to deactivate need")
	}
	if tag.RowsAffected() == 0 {
		return utils.NotFoundError(c, "Active need not found")
	}

	return c.JSON(fiber.Map{"success": true})
}
