package match

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/lama-alharbi8/SkillSwap/internal/config"
	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/matching"
	"github.com/lama-alharbi8/SkillSwap/internal/models"
	"github.com/lama-alharbi8/SkillSwap/internal/utils"
)

// MatchService finds bilateral exchange partners for the current user.
type MatchService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewMatchService creates the service.
func NewMatchService(cfg *config.Config) *MatchService {
	return &MatchService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetMatches runs the two-pass partner search against the current active
// offer/need graph and returns ranked candidates.
func (s *MatchService) GetMatches(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	snap, err := loadSnapshot(ctx)
	if err != nil {
		log.Printf("loading match snapshot: %v", err)
		return utils.InternalError(c, "Failed to load marketplace data")
	}

	candidates := matching.FindMatches(userUUID, snap)

	return c.JSON(fiber.Map{
		"matches": candidates,
		"count":   len(candidates),
	})
}

// loadSnapshot reads every active offer and need, with the display fields
// the match summaries use.
func loadSnapshot(ctx context.Context) (matching.Snapshot, error) {
	snap := matching.Snapshot{Users: make(map[uuid.UUID]string)}

	rows, err := db.Pool.Query(ctx, `
		SELECT o.id, o.user_id, o.skill_id, o.hourly_rate_equivalent, s.name, u.username
		FROM offered_skills o
		JOIN skills s ON s.id = o.skill_id
		JOIN users u ON u.id = o.user_id
		WHERE o.is_active = true
	`)
	if err != nil {
		return snap, err
	}
	defer rows.Close()

	for rows.Next() {
		var o models.OfferedSkill
		var skillName, username string
		if err := rows.Scan(&o.ID, &o.UserID, &o.SkillID, &o.HourlyRateEquivalent, &skillName, &username); err != nil {
			return snap, err
		}
		o.IsActive = true
		o.Skill = &models.Skill{ID: o.SkillID, Name: skillName}
		snap.Users[o.UserID] = username
		snap.Offers = append(snap.Offers, o)
	}
	if err := rows.Err(); err != nil {
		return snap, err
	}

	needRows, err := db.Pool.Query(ctx, `
		SELECT n.id, n.user_id, n.skill_id, n.urgency, n.max_hourly_rate, u.username
		FROM needed_skills n
		JOIN users u ON u.id = n.user_id
		WHERE n.is_active = true
	`)
	if err != nil {
		return snap, err
	}
	defer needRows.Close()

	for needRows.Next() {
		var n models.NeededSkill
		var username string
		if err := needRows.Scan(&n.ID, &n.UserID, &n.SkillID, &n.Urgency, &n.MaxHourlyRate, &username); err != nil {
			return snap, err
		}
		n.IsActive = true
		snap.Users[n.UserID] = username
		snap.Needs = append(snap.Needs, n)
	}
	return snap, needRows.Err()
}
