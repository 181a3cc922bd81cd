package main

import (
	"context"
	"log"
	"strings"

	"sekolah-backend/internal/audit"
	"sekolah-backend/internal/auth"
	"sekolah-backend/internal/cache"
	"sekolah-backend/internal/config"
	"sekolah-backend/internal/database"
	"sekolah-backend/internal/sispendik"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	var reportCache cache.Cache = cache.Nop{}
	if rdb := cache.Connect(context.Background(), cfg.RedisAddr); rdb != nil {
		defer rdb.Close()
		reportCache = cache.NewRedis(rdb, cfg.ReportCacheTTL)
	}

	auditRepo := audit.NewGormRepository(database.DB)
	svc := sispendik.NewService(sispendik.Options{
		Store:    sispendik.NewGormStore(database.DB),
		Cache:    reportCache,
		Audit:    auditRepo,
		Location: cfg.Location,
		Sections: cfg.ClassSections,
	})

	// Kelas hanya di-seed secara eksplisit, tidak pernah saat laporan dibaca.
	if cfg.SeedClasses {
		added, err := svc.SeedClasses(context.Background())
		if err != nil {
			log.Fatalf("[FATAL] Seed kelas gagal: %v", err)
		}
		log.Printf("Seed kelas selesai, %d kelas baru", added)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(sispendik.Result{Message: e.Message})
			}
			log.Println("[ERROR] Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(sispendik.Result{
				Message: "Terjadi kesalahan pada server",
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	requireAuth := auth.JWTMiddleware(cfg.JWTSecret)

	api.Post("/auth/login", auth.LoginHandler(database.DB, cfg.JWTSecret))
	api.Get("/auth/me", requireAuth, auth.MeHandler())

	sispendik.RegisterRoutes(api, svc, auditRepo, requireAuth)

	log.Println("Server berjalan di port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
