package exchange

import (
	"context"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lama-alharbi8/SkillSwap/internal/config"
	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/fairness"
	"github.com/lama-alharbi8/SkillSwap/internal/models"
	"github.com/lama-alharbi8/SkillSwap/internal/services/notification"
	"github.com/lama-alharbi8/SkillSwap/internal/utils"
)

// ExchangeService manages bilateral exchange proposals and their lifecycle.
type ExchangeService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	dispatcher *notification.Dispatcher
}

// NewExchangeService creates the service.
func NewExchangeService(cfg *config.Config, dispatcher *notification.Dispatcher) *ExchangeService {
	return &ExchangeService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		dispatcher: dispatcher,
	}
}

// CreateExchange proposes a barter: the caller contributes one of their
// active offers, the responder is whoever owns the other offer. The hour
// split is snapshotted from both rates at this moment.
func (s *ExchangeService) CreateExchange(c fiber.Ctx) error {
	initiatorID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	var requestData struct {
		InitiatorSkillID string `json:"initiator_skill_id"`
		ResponderSkillID string `json:"responder_skill_id"`
		Terms            string `json:"terms"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("decoding create exchange request: %v", err)
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid request body")
	}

	initiatorSkillID, err := uuid.Parse(requestData.InitiatorSkillID)
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid initiator skill ID")
	}
	responderSkillID, err := uuid.Parse(requestData.ResponderSkillID)
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid responder skill ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	initiatorOffer, err := s.loadOffer(ctx, initiatorSkillID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.NotFoundError(c, "Initiator offer not found")
		}
		log.Printf("querying initiator offer: %v", err)
		return utils.InternalError(c, "Failed to verify offer")
	}
	if initiatorOffer.UserID != initiatorID {
		return utils.AuthorizationError(c, utils.CodeWrongOwner, "You can only contribute your own offered skill")
	}
	if !initiatorOffer.IsActive {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Your offer is no longer active")
	}

	responderOffer, err := s.loadOffer(ctx, responderSkillID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.NotFoundError(c, "Responder offer not found")
		}
		log.Printf("querying responder offer: %v", err)
		return utils.InternalError(c, "Failed to verify offer")
	}
	if !responderOffer.IsActive {
		return utils.ValidationError(c, utils.CodeInvalidInput, "The requested offer is no longer active")
	}

	responderID := responderOffer.UserID
	if responderID == initiatorID {
		return utils.ValidationError(c, utils.CodeSelfExchange, "You cannot propose an exchange with yourself")
	}

	var duplicates int
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM exchanges
		WHERE initiator_skill_id = $1 AND responder_skill_id = $2 AND status = 'pending'
	`, initiatorSkillID, responderSkillID).Scan(&duplicates)
	if err != nil {
		log.Printf("checking duplicate proposals: %v", err)
		return utils.InternalError(c, "Failed to verify existing proposals")
	}
	if duplicates > 0 {
		return utils.ConflictError(c, utils.CodeConflict, "An identical pending proposal already exists")
	}

	e := models.Exchange{
		ID:               uuid.New(),
		InitiatorID:      initiatorID,
		ResponderID:      responderID,
		InitiatorSkillID: initiatorSkillID,
		ResponderSkillID: responderSkillID,
		Status:           models.ExchangeStatusPending,
		Terms:            requestData.Terms,
	}
	e.Recalculate(initiatorOffer.HourlyRateEquivalent, responderOffer.HourlyRateEquivalent)

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO exchanges (id, initiator_id, responder_id, initiator_skill_id, responder_skill_id,
			initiator_hourly_rate, responder_hourly_rate, calculated_ratio,
			initiator_hours_required, responder_hours_required,
			total_value, imbalance_amount, is_balanced, status, terms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, e.ID, e.InitiatorID, e.ResponderID, e.InitiatorSkillID, e.ResponderSkillID,
		e.InitiatorHourlyRate, e.ResponderHourlyRate, e.CalculatedRatio,
		e.InitiatorHoursRequired, e.ResponderHoursRequired,
		e.TotalValue, e.ImbalanceAmount, e.IsBalanced, e.Status, e.Terms)
	if err != nil {
		log.Printf("inserting exchange: %v", err)
		return utils.InternalError(c, "Failed to save exchange")
	}

	event := models.NewExchangeEvent(models.EventExchangeProposed, &e, initiatorID)
	s.dispatcher.DispatchExchangeEvent(ctx, event, s.username(ctx, initiatorID))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"exchange_id": e.ID,
		"calculation": fiber.Map{
			"ratio":                    fairness.Round2(e.CalculatedRatio),
			"initiator_hours_required": e.InitiatorHoursRequired,
			"responder_hours_required": e.ResponderHoursRequired,
			"total_value":              fairness.Round2(e.TotalValue),
			"is_balanced":              e.IsBalanced,
		},
	})
}

// GetMyExchanges lists the caller's exchanges, filterable by direction
// (incoming/outgoing) and status.
func (s *ExchangeService) GetMyExchanges(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	direction := c.Query("type", "all") // all, incoming, outgoing
	status := c.Query("status", "all")
	if status != "all" && !models.ValidExchangeStatus(status) {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Unknown exchange status")
	}

	query := `
		SELECT id, initiator_id, responder_id, initiator_skill_id, responder_skill_id,
		       initiator_hourly_rate, responder_hourly_rate, calculated_ratio,
		       initiator_hours_required, responder_hours_required,
		       total_value, imbalance_amount, is_balanced, status, terms,
		       created_at, updated_at, accepted_at, started_at, completed_at, closed_at,
		       initiator_rating, responder_rating
		FROM exchanges
	`
	var args []interface{}
	switch direction {
	case "incoming":
		query += ` WHERE responder_id = $1`
		args = append(args, userUUID)
	case "outgoing":
		query += ` WHERE initiator_id = $1`
		args = append(args, userUUID)
	default:
		query += ` WHERE (initiator_id = $1 OR responder_id = $1)`
		args = append(args, userUUID)
	}
	if status != "all" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("querying exchanges: %v", err)
		return utils.InternalError(c, "Failed to load exchanges")
	}
	defer rows.Close()

	exchanges := []models.Exchange{}
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			log.Printf("scanning exchange: %v", err)
			continue
		}
		exchanges = append(exchanges, e)
	}

	for i := range exchanges {
		s.attachParties(ctx, &exchanges[i])
	}

	return c.JSON(fiber.Map{
		"exchanges": exchanges,
		"count":     len(exchanges),
	})
}

// GetExchange returns one exchange with its fairness report and any
// suggested adjustment. Participants only.
func (s *ExchangeService) GetExchange(c fiber.Ctx) error {
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

	e, err := s.loadExchange(ctx, exchangeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.NotFoundError(c, "Exchange not found")
		}
		log.Printf("querying exchange: %v", err)
		return utils.InternalError(c, "Failed to load exchange")
	}
	if !e.IsParticipant(userUUID) {
		return utils.AuthorizationError(c, utils.CodeNotParticipant, "Only participants can view this exchange")
	}

	s.attachParties(ctx, &e)

	return c.JSON(fiber.Map{
		"exchange":   e,
		"report":     e.DetailedFairnessReport(),
		"adjustment": e.SuggestAdjustment(),
	})
}

// Calculate exposes the rate-ratio calculator: given two rates it returns
// the fair hour split without touching any stored exchange.
func (s *ExchangeService) Calculate(c fiber.Ctx) error {
	rateA, errA := strconv.ParseFloat(c.Query("rate_a", "0"), 64)
	rateB, errB := strconv.ParseFloat(c.Query("rate_b", "0"), 64)
	if errA != nil || errB != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Rates must be numbers")
	}

	result := fairness.Compute(rateA, rateB)

	return c.JSON(fiber.Map{
		"calculation": result,
		"summary":     formatRatioSummary(result),
	})
}

func formatRatioSummary(r fairness.Result) string {
	return "1 hr at the higher rate = " + strconv.FormatFloat(maxHours(r), 'f', 2, 64) + " hrs at the lower rate"
}

func maxHours(r fairness.Result) float64 {
	if r.HoursA > r.HoursB {
		return r.HoursA
	}
	return r.HoursB
}

// loadOffer fetches one offered skill row.
func (s *ExchangeService) loadOffer(ctx context.Context, offerID uuid.UUID) (models.OfferedSkill, error) {
	var o models.OfferedSkill
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, skill_id, hourly_rate_equivalent, is_active
		FROM offered_skills
		WHERE id = $1
	`, offerID).Scan(&o.ID, &o.UserID, &o.SkillID, &o.HourlyRateEquivalent, &o.IsActive)
	return o, err
}

// loadExchange fetches one exchange row outside a transaction.
func (s *ExchangeService) loadExchange(ctx context.Context, exchangeID uuid.UUID) (models.Exchange, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT id, initiator_id, responder_id, initiator_skill_id, responder_skill_id,
		       initiator_hourly_rate, responder_hourly_rate, calculated_ratio,
		       initiator_hours_required, responder_hours_required,
		       total_value, imbalance_amount, is_balanced, status, terms,
		       created_at, updated_at, accepted_at, started_at, completed_at, closed_at,
		       initiator_rating, responder_rating
		FROM exchanges
		WHERE id = $1
	`, exchangeID)
	return scanExchange(row)
}

// scanExchange reads the standard exchange column set.
func scanExchange(row pgx.Row) (models.Exchange, error) {
	var e models.Exchange
	err := row.Scan(&e.ID, &e.InitiatorID, &e.ResponderID, &e.InitiatorSkillID, &e.ResponderSkillID,
		&e.InitiatorHourlyRate, &e.ResponderHourlyRate, &e.CalculatedRatio,
		&e.InitiatorHoursRequired, &e.ResponderHoursRequired,
		&e.TotalValue, &e.ImbalanceAmount, &e.IsBalanced, &e.Status, &e.Terms,
		&e.CreatedAt, &e.UpdatedAt, &e.AcceptedAt, &e.StartedAt, &e.CompletedAt, &e.ClosedAt,
		&e.InitiatorRating, &e.ResponderRating)
	return e, err
}

// attachParties loads display info for both users and skills.
func (s *ExchangeService) attachParties(ctx context.Context, e *models.Exchange) {
	e.Initiator = s.userInfo(ctx, e.InitiatorID)
	e.Responder = s.userInfo(ctx, e.ResponderID)
	e.InitiatorSkill = s.offerInfo(ctx, e.InitiatorSkillID)
	e.ResponderSkill = s.offerInfo(ctx, e.ResponderSkillID)
}

// userInfo fetches display data for one user, nil when unavailable.
func (s *ExchangeService) userInfo(ctx context.Context, userID uuid.UUID) *models.User {
	var u models.User
	err := db.Pool.QueryRow(ctx, `
		SELECT id, username, display_name FROM users WHERE id = $1
	`, userID).Scan(&u.ID, &u.Username, &u.DisplayName)
	if err != nil {
		log.Printf("querying user %s: %v", userID, err)
		return nil
	}
	return &u
}

// offerInfo fetches an offer with its skill name, nil when unavailable.
func (s *ExchangeService) offerInfo(ctx context.Context, offerID uuid.UUID) *models.OfferedSkill {
	var o models.OfferedSkill
	var skillName string
	err := db.Pool.QueryRow(ctx, `
		SELECT o.id, o.user_id, o.skill_id, o.description, o.hourly_rate_equivalent, o.is_active, s.name
		FROM offered_skills o
		JOIN skills s ON s.id = o.skill_id
		WHERE o.id = $1
	`, offerID).Scan(&o.ID, &o.UserID, &o.SkillID, &o.Description, &o.HourlyRateEquivalent, &o.IsActive, &skillName)
	if err != nil {
		log.Printf("querying offer %s: %v", offerID, err)
		return nil
	}
	o.Skill = &models.Skill{ID: o.SkillID, Name: skillName}
	return &o
}

// username resolves a user ID to a username for notification texts.
func (s *ExchangeService) username(ctx context.Context, userID uuid.UUID) string {
	if u := s.userInfo(ctx, userID); u != nil && u.Username != "" {
		return u.Username
	}
	return "Someone"
}
