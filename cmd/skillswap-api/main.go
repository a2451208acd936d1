package main

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/lama-alharbi8/SkillSwap/internal/config"
	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/services/chain"
	"github.com/lama-alharbi8/SkillSwap/internal/services/exchange"
	"github.com/lama-alharbi8/SkillSwap/internal/services/match"
	"github.com/lama-alharbi8/SkillSwap/internal/services/notification"
	"github.com/lama-alharbi8/SkillSwap/internal/services/offer"
	"github.com/lama-alharbi8/SkillSwap/internal/services/skill"
	"github.com/lama-alharbi8/SkillSwap/internal/services/stats"
	"github.com/lama-alharbi8/SkillSwap/internal/utils"
	"github.com/lama-alharbi8/SkillSwap/internal/websocket"
)

func main() {
	cfg := config.LoadConfig()

	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("initializing database: %v", err)
	}
	defer db.CloseDB()

	app := fiber.New(fiber.Config{
		AppName:      "SkillSwap API",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	jwtService := utils.NewJWTService(cfg.JWTSecret)

	wsManager := websocket.NewManager()
	defer wsManager.Shutdown()
	dispatcher := notification.NewDispatcher(wsManager)

	skillService := skill.NewSkillService(cfg)
	offerService := offer.NewOfferService(cfg)
	exchangeService := exchange.NewExchangeService(cfg, dispatcher)
	matchService := match.NewMatchService(cfg)
	chainService := chain.NewChainService(cfg)
	statsService := stats.NewStatsService(cfg)
	notificationService := notification.NewNotificationService(cfg, dispatcher)

	skillService.SetupRoutes(app)
	offerService.SetupRoutes(app)
	exchangeService.SetupRoutes(app)
	matchService.SetupRoutes(app)
	chainService.SetupRoutes(app)
	statsService.SetupRoutes(app)
	notificationService.SetupRoutes(app)

	app.Get("/ws", adaptor.HTTPHandlerFunc(wsManager.Handler(jwtService)))

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	log.Printf("SkillSwap API listening on %s", cfg.HTTPAddr)
	log.Fatal(app.Listen(cfg.HTTPAddr))
}

// errorHandler renders unhandled Fiber errors as JSON.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
