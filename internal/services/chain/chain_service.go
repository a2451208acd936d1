package chain

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lama-alharbi8/SkillSwap/internal/config"
	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/fairness"
	"github.com/lama-alharbi8/SkillSwap/internal/matching"
	"github.com/lama-alharbi8/SkillSwap/internal/models"
	"github.com/lama-alharbi8/SkillSwap/internal/utils"
)

// ChainService manages multi-party exchange chains: discovery of closed
// cycles, chain formation, and per-link acceptance.
type ChainService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewChainService creates the service.
func NewChainService(cfg *config.Config) *ChainService {
	return &ChainService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// DiscoverChains searches the active offer/need graph for closed 3-cycles
// involving the caller. When no cycle closes, an hour-pool suggestion may be
// returned instead.
func (s *ChainService) DiscoverChains(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	snap, err := loadSnapshot(ctx)
	if err != nil {
		log.Printf("loading chain snapshot: %v", err)
		return utils.InternalError(c, "Failed to load marketplace data")
	}

	proposals, suggestion := matching.DiscoverChains(userUUID, snap)

	response := fiber.Map{
		"chains": proposals,
		"count":  len(proposals),
	}
	if suggestion != nil {
		response["suggestion"] = suggestion
	}
	return c.JSON(response)
}

// CreateChain forms a chain from an ordered list of participants, each
// naming the offered skill they contribute. Link wiring follows the cyclic
// convention: every position receives from the next one modulo length, and
// rates are snapshotted from the offers at this moment. The creator's own
// link is accepted immediately; everyone else starts pending.
func (s *ChainService) CreateChain(c fiber.Ctx) error {
	creatorID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	var requestData struct {
		Name         string `json:"name"`
		Participants []struct {
			UserID              string `json:"user_id"`
			GivesOfferedSkillID string `json:"gives_offered_skill_id"`
		} `json:"participants"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("decoding create chain request: %v", err)
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid request body")
	}
	if len(requestData.Participants) < 2 {
		return utils.ValidationError(c, utils.CodeInvalidInput, "A chain needs at least two participants")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	type member struct {
		userID  uuid.UUID
		offerID uuid.UUID
		skillID uuid.UUID
		rate    float64
	}
	members := make([]member, 0, len(requestData.Participants))
	seenUsers := make(map[uuid.UUID]bool)
	creatorIncluded := false

	for _, p := range requestData.Participants {
		userID, err := uuid.Parse(p.UserID)
		if err != nil {
			return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid participant user ID")
		}
		offerID, err := uuid.Parse(p.GivesOfferedSkillID)
		if err != nil {
			return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid participant offer ID")
		}
		if seenUsers[userID] {
			return utils.ValidationError(c, utils.CodeInvalidInput, "Each user may appear in a chain only once")
		}
		seenUsers[userID] = true
		if userID == creatorID {
			creatorIncluded = true
		}

		var ownerID, skillID uuid.UUID
		var rate float64
		var isActive bool
		err = db.Pool.QueryRow(ctx, `
			SELECT user_id, skill_id, hourly_rate_equivalent, is_active
			FROM offered_skills
			WHERE id = $1
		`, offerID).Scan(&ownerID, &skillID, &rate, &isActive)
		if err != nil {
			if err == pgx.ErrNoRows {
				return utils.NotFoundError(c, "Participant offer not found")
			}
			log.Printf("querying chain offer: %v", err)
			return utils.InternalError(c, "Failed to verify offers")
		}
		if ownerID != userID {
			return utils.ValidationError(c, utils.CodeWrongOwner, "Each participant must contribute their own offer")
		}
		if !isActive {
			return utils.ValidationError(c, utils.CodeInvalidInput, "A contributed offer is no longer active")
		}
		members = append(members, member{userID: userID, offerID: offerID, skillID: skillID, rate: rate})
	}
	if !creatorIncluded {
		return utils.AuthorizationError(c, utils.CodeNotParticipant, "You must be one of the chain's participants")
	}

	now := time.Now()
	chain := models.ExchangeChain{
		ID:                uuid.New(),
		Name:              requestData.Name,
		Status:            models.ChainStatusProposed,
		CreatedBy:         creatorID,
		TotalParticipants: len(members),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	for i, m := range members {
		next := members[(i+1)%len(members)]
		calc := fairness.Compute(m.rate, next.rate)

		link := models.ChainLink{
			ID:                  uuid.New(),
			ChainID:             chain.ID,
			UserID:              m.userID,
			GivesOfferedSkillID: m.offerID,
			GivesSkillID:        m.skillID,
			ReceivesSkillID:     next.skillID,
			GiveRate:            m.rate,
			ReceiveRate:         next.rate,
			HoursGiven:          calc.HoursA,
			HoursReceived:       calc.HoursB,
			Position:            i,
			Status:              models.LinkStatusPending,
			CreatedAt:           now,
		}
		if m.userID == creatorID {
			link.Status = models.LinkStatusAccepted
			link.DecidedAt = &now
		}
		chain.Links = append(chain.Links, link)
		chain.TotalHours += link.HoursGiven
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("starting chain transaction: %v", err)
		return utils.InternalError(c, "Failed to save chain")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO exchange_chains (id, name, status, created_by, total_participants, total_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, chain.ID, chain.Name, chain.Status, chain.CreatedBy, chain.TotalParticipants, chain.TotalHours, chain.CreatedAt, chain.UpdatedAt)
	if err != nil {
		log.Printf("inserting chain: %v", err)
		return utils.InternalError(c, "Failed to save chain")
	}

	for _, l := range chain.Links {
		_, err = tx.Exec(ctx, `
			INSERT INTO chain_links (id, chain_id, user_id, gives_offered_skill_id, gives_skill_id, receives_skill_id,
				give_rate, receive_rate, hours_given, hours_received, position, status, created_at, decided_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, l.ID, l.ChainID, l.UserID, l.GivesOfferedSkillID, l.GivesSkillID, l.ReceivesSkillID,
			l.GiveRate, l.ReceiveRate, l.HoursGiven, l.HoursReceived, l.Position, l.Status, l.CreatedAt, l.DecidedAt)
		if err != nil {
			log.Printf("inserting chain link: %v", err)
			return utils.InternalError(c, "Failed to save chain")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("committing chain transaction: %v", err)
		return utils.InternalError(c, "Failed to save chain")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"chain_id": chain.ID,
		"chain":    chain,
	})
}

// GetMyChains lists chains the caller participates in, newest first.
func (s *ChainService) GetMyChains(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT c.id, c.name, c.status, c.created_by, c.total_participants, c.total_hours, c.created_at, c.updated_at
		FROM exchange_chains c
		JOIN chain_links l ON l.chain_id = c.id
		WHERE l.user_id = $1
		ORDER BY c.created_at DESC
	`, userUUID)
	if err != nil {
		log.Printf("querying chains: %v", err)
		return utils.InternalError(c, "Failed to load chains")
	}
	defer rows.Close()

	chains := []models.ExchangeChain{}
	for rows.Next() {
		var ch models.ExchangeChain
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Status, &ch.CreatedBy,
			&ch.TotalParticipants, &ch.TotalHours, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			log.Printf("scanning chain: %v", err)
			continue
		}
		chains = append(chains, ch)
	}

	for i := range chains {
		if links, err := loadLinks(ctx, chains[i].ID); err == nil {
			chains[i].Links = links
		}
	}

	return c.JSON(fiber.Map{
		"chains": chains,
		"count":  len(chains),
	})
}

// GetChain returns one chain with its links, cycle summary and current
// fairness score. Participants only.
func (s *ChainService) GetChain(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}
	chainID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid chain ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var ch models.ExchangeChain
	err = db.Pool.QueryRow(ctx, `
		SELECT id, name, status, created_by, total_participants, total_hours, created_at, updated_at
		FROM exchange_chains
		WHERE id = $1
	`, chainID).Scan(&ch.ID, &ch.Name, &ch.Status, &ch.CreatedBy,
		&ch.TotalParticipants, &ch.TotalHours, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.NotFoundError(c, "Chain not found")
		}
		log.Printf("querying chain: %v", err)
		return utils.InternalError(c, "Failed to load chain")
	}

	ch.Links, err = loadLinks(ctx, ch.ID)
	if err != nil {
		log.Printf("loading chain links: %v", err)
		return utils.InternalError(c, "Failed to load chain")
	}

	isParticipant := false
	for _, l := range ch.Links {
		if l.UserID == userUUID {
			isParticipant = true
			break
		}
	}
	if !isParticipant {
		return utils.AuthorizationError(c, utils.CodeNotParticipant, "Only participants can view this chain")
	}

	return c.JSON(fiber.Map{
		"chain":          ch,
		"summary":        ch.Summary(),
		"fairness_score": ch.CalculateFairness(),
	})
}

// loadSnapshot reads the active offer/need graph for chain discovery.
func loadSnapshot(ctx context.Context) (matching.Snapshot, error) {
	snap := matching.Snapshot{Users: make(map[uuid.UUID]string)}

	rows, err := db.Pool.Query(ctx, `
		SELECT o.id, o.user_id, o.skill_id, o.hourly_rate_equivalent, u.username
		FROM offered_skills o
		JOIN users u ON u.id = o.user_id
		WHERE o.is_active = true
	`)
	if err != nil {
		return snap, err
	}
	defer rows.Close()

	for rows.Next() {
		var o models.OfferedSkill
		var username string
		if err := rows.Scan(&o.ID, &o.UserID, &o.SkillID, &o.HourlyRateEquivalent, &username); err != nil {
			return snap, err
		}
		o.IsActive = true
		snap.Users[o.UserID] = username
		snap.Offers = append(snap.Offers, o)
	}
	if err := rows.Err(); err != nil {
		return snap, err
	}

	needRows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, skill_id, max_hourly_rate
		FROM needed_skills
		WHERE is_active = true
	`)
	if err != nil {
		return snap, err
	}
	defer needRows.Close()

	for needRows.Next() {
		var n models.NeededSkill
		if err := needRows.Scan(&n.ID, &n.UserID, &n.SkillID, &n.MaxHourlyRate); err != nil {
			return snap, err
		}
		n.IsActive = true
		snap.Needs = append(snap.Needs, n)
	}
	return snap, needRows.Err()
}

// loadLinks reads a chain's links ordered by position, with usernames.
func loadLinks(ctx context.Context, chainID uuid.UUID) ([]models.ChainLink, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT l.id, l.chain_id, l.user_id, l.gives_offered_skill_id, l.gives_skill_id, l.receives_skill_id,
		       l.give_rate, l.receive_rate, l.hours_given, l.hours_received,
		       l.position, l.status, l.created_at, l.decided_at, u.username
		FROM chain_links l
		JOIN users u ON u.id = l.user_id
		WHERE l.chain_id = $1
		ORDER BY l.position
	`, chainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.ChainLink
	for rows.Next() {
		var l models.ChainLink
		var username string
		if err := rows.Scan(&l.ID, &l.ChainID, &l.UserID, &l.GivesOfferedSkillID, &l.GivesSkillID, &l.ReceivesSkillID,
			&l.GiveRate, &l.ReceiveRate, &l.HoursGiven, &l.HoursReceived,
			&l.Position, &l.Status, &l.CreatedAt, &l.DecidedAt, &username); err != nil {
			return nil, err
		}
		l.User = &models.User{ID: l.UserID, Username: username}
		links = append(links, l)
	}
	return links, rows.Err()
}
