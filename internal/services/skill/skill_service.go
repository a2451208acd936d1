package skill

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lama-alharbi8/SkillSwap/internal/config"
	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/models"
	"github.com/lama-alharbi8/SkillSwap/internal/utils"
)

// SkillService manages the skill and category taxonomy.
type SkillService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewSkillService creates the service.
func NewSkillService(cfg *config.Config) *SkillService {
	return &SkillService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreateSkill registers a skill together with up to three nested category
// levels. Both the skill and every category level use get-or-create
// semantics inside a single transaction, so repeated submissions never
// produce duplicates.
func (s *SkillService) CreateSkill(c fiber.Ctx) error {
	var requestData struct {
		Name        string   `json:"name"`
		Proficiency string   `json:"proficiency_level"`
		Categories  []string `json:"categories"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("decoding create skill request: %v", err)
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid request body")
	}

	name := strings.TrimSpace(requestData.Name)
	if name == "" {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Skill name is required")
	}
	if len(requestData.Categories) > 3 {
		return utils.ValidationError(c, utils.CodeInvalidInput, "At most 3 category levels are supported")
	}

	proficiency := requestData.Proficiency
	if proficiency == "" {
		proficiency = models.ProficiencyBeginner
	}
	switch proficiency {
	case models.ProficiencyBeginner, models.ProficiencyIntermediate, models.ProficiencyExpert:
	default:
		return utils.ValidationError(c, utils.CodeInvalidInput, "Unknown proficiency level")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("beginning transaction: %v", err)
		return utils.InternalError(c, "Database error")
	}
	defer tx.Rollback(ctx)

	// Walk the category levels, each becoming the parent of the next.
	var parentID *uuid.UUID
	for _, level := range requestData.Categories {
		level = strings.TrimSpace(level)
		if level == "" {
			break
		}
		categoryID, err := getOrCreateCategory(ctx, tx, level, parentID)
		if err != nil {
			log.Printf("get-or-create category %q: %v", level, err)
			return utils.InternalError(c, "Failed to save category")
		}
		parentID = &categoryID
	}

	skillID, created, err := getOrCreateSkill(ctx, tx, name, proficiency)
	if err != nil {
		log.Printf("get-or-create skill %q: %v", name, err)
		return utils.InternalError(c, "Failed to save skill")
	}

	// Tag the skill with the deepest category level.
	if parentID != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO skill_categories (skill_id, category_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, skillID, *parentID)
		if err != nil {
			log.Printf("linking skill to category: %v", err)
			return utils.InternalError(c, "Failed to save skill")
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("committing transaction: %v", err)
		return utils.InternalError(c, "Database error")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"success":  true,
		"skill_id": skillID,
		"created":  created,
	})
}

// ListSkills returns all skills, optionally filtered by a name substring,
// with category paths attached.
func (s *SkillService) ListSkills(c fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))

	ctx, cancel := db.GetContext()
	defer cancel()

	var rows pgx.Rows
	var err error
	if query != "" {
		rows, err = db.Pool.Query(ctx, `
			SELECT id, name, proficiency_level, created_at
			FROM skills
			WHERE name ILIKE '%' || $1 || '%'
			ORDER BY name
		`, query)
	} else {
		rows, err = db.Pool.Query(ctx, `
			SELECT id, name, proficiency_level, created_at
			FROM skills
			ORDER BY name
		`)
	}
	if err != nil {
		log.Printf("querying skills: %v", err)
		return utils.InternalError(c, "Failed to load skills")
	}
	defer rows.Close()

	skills := []models.Skill{}
	for rows.Next() {
		var sk models.Skill
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.Proficiency, &sk.CreatedAt); err != nil {
			log.Printf("scanning skill: %v", err)
			continue
		}
		skills = append(skills, sk)
	}

	if err := attachCategories(ctx, skills); err != nil {
		log.Printf("loading skill categories: %v", err)
	}

	return c.JSON(fiber.Map{
		"skills": skills,
		"count":  len(skills),
	})
}

// getOrCreateCategory finds or inserts a category under parentID.
func getOrCreateCategory(ctx context.Context, tx pgx.Tx, name string, parentID *uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	var err error
	if parentID == nil {
		err = tx.QueryRow(ctx, `
			SELECT id FROM categories WHERE name = $1 AND parent_id IS NULL
		`, name).Scan(&id)
	} else {
		err = tx.QueryRow(ctx, `
			SELECT id FROM categories WHERE name = $1 AND parent_id = $2
		`, name, *parentID).Scan(&id)
	}
	if err == nil {
		return id, nil
	}
	if err != pgx.ErrNoRows {
		return uuid.Nil, err
	}

	id = uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO categories (id, name, parent_id) VALUES ($1, $2, $3)
	`, id, name, parentID)
	return id, err
}

// getOrCreateSkill finds or inserts a skill by its unique name.
func getOrCreateSkill(ctx context.Context, tx pgx.Tx, name, proficiency string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM skills WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if err != pgx.ErrNoRows {
		return uuid.Nil, false, err
	}

	id = uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO skills (id, name, proficiency_level) VALUES ($1, $2, $3)
	`, id, name, proficiency)
	return id, true, err
}

// attachCategories loads the category tree once and attaches full parent
// chains to each skill in place.
func attachCategories(ctx context.Context, skills []models.Skill) error {
	rows, err := db.Pool.Query(ctx, `SELECT id, name, parent_id FROM categories`)
	if err != nil {
		return err
	}
	defer rows.Close()

	categories := make(map[uuid.UUID]*models.Category)
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.ParentID); err != nil {
			return err
		}
		categories[cat.ID] = &cat
	}
	for _, cat := range categories {
		if cat.ParentID != nil {
			cat.Parent = categories[*cat.ParentID]
		}
	}

	linkRows, err := db.Pool.Query(ctx, `SELECT skill_id, category_id FROM skill_categories`)
	if err != nil {
		return err
	}
	defer linkRows.Close()

	bySkill := make(map[uuid.UUID][]models.Category)
	for linkRows.Next() {
		var skillID, categoryID uuid.UUID
		if err := linkRows.Scan(&skillID, &categoryID); err != nil {
			return err
		}
		if cat, ok := categories[categoryID]; ok {
			bySkill[skillID] = append(bySkill[skillID], *cat)
		}
	}

	for i := range skills {
		skills[i].Categories = bySkill[skills[i].ID]
	}
	return nil
}
