package stats

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/lama-alharbi8/SkillSwap/internal/config"
	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/fairness"
	"github.com/lama-alharbi8/SkillSwap/internal/utils"
)

// StatsService reports per-user exchange statistics.
type StatsService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewStatsService creates the service.
func NewStatsService(cfg *config.Config) *StatsService {
	return &StatsService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetStatistics summarizes the caller's exchange activity: counts per
// status, hours given and received across completed exchanges, the average
// fairness of completed exchanges and the average rating received.
func (s *StatsService) GetStatistics(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	byStatus := map[string]int{}
	rows, err := db.Pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM exchanges
		WHERE initiator_id = $1 OR responder_id = $1
		GROUP BY status
	`, userUUID)
	if err != nil {
		log.Printf("querying exchange counts: %v", err)
		return utils.InternalError(c, "Failed to load statistics")
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			log.Printf("scanning exchange count: %v", err)
			continue
		}
		byStatus[status] = count
		total += count
	}

	// Hours and value flow from the caller's perspective across completed
	// exchanges: as initiator they give initiator hours, as responder the
	// responder hours.
	var hoursGiven, hoursReceived, valueSum, scoreSum float64
	var completed int
	completedRows, err := db.Pool.Query(ctx, `
		SELECT initiator_id, initiator_hourly_rate, responder_hourly_rate,
		       initiator_hours_required, responder_hours_required
		FROM exchanges
		WHERE (initiator_id = $1 OR responder_id = $1) AND status = 'completed'
	`, userUUID)
	if err != nil {
		log.Printf("querying completed exchanges: %v", err)
		return utils.InternalError(c, "Failed to load statistics")
	}
	defer completedRows.Close()

	for completedRows.Next() {
		var initiatorID uuid.UUID
		var initRate, respRate, initHours, respHours float64
		if err := completedRows.Scan(&initiatorID, &initRate, &respRate, &initHours, &respHours); err != nil {
			log.Printf("scanning completed exchange: %v", err)
			continue
		}
		if initiatorID == userUUID {
			hoursGiven += initHours
			hoursReceived += respHours
		} else {
			hoursGiven += respHours
			hoursReceived += initHours
		}
		valueSum += (initRate*initHours + respRate*respHours) / 2
		scoreSum += fairness.Score(initRate*initHours, respRate*respHours)
		completed++
	}

	var averageFairness float64
	if completed > 0 {
		averageFairness = fairness.Round1(scoreSum / float64(completed))
	}

	var averageRating *float64
	err = db.Pool.QueryRow(ctx, `
		SELECT AVG(r)::float8 FROM (
			SELECT responder_rating AS r FROM exchanges
			WHERE initiator_id = $1 AND responder_rating IS NOT NULL
			UNION ALL
			SELECT initiator_rating AS r FROM exchanges
			WHERE responder_id = $1 AND initiator_rating IS NOT NULL
		) ratings
	`, userUUID).Scan(&averageRating)
	if err != nil {
		log.Printf("querying average rating: %v", err)
	}

	response := fiber.Map{
		"total_exchanges":     total,
		"by_status":           byStatus,
		"completed_exchanges": completed,
		"hours_given":         fairness.Round2(hoursGiven),
		"hours_received":      fairness.Round2(hoursReceived),
		"total_value_traded":  fairness.Round2(valueSum),
		"average_fairness":    averageFairness,
	}
	if averageRating != nil {
		response["average_rating"] = fairness.Round2(*averageRating)
	}
	return c.JSON(response)
}
