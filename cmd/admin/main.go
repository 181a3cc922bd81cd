package main

import (
	"context"
	"log"
	"os"

	"sekolah-backend/internal/auth"
	"sekolah-backend/internal/config"
	"sekolah-backend/internal/database"
	"sekolah-backend/internal/models"
	"sekolah-backend/internal/sispendik"
)

func main() {
	cfg := config.LoadWithoutAuth()

	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("[FATAL] Tidak dapat terhubung ke database: %v", err)
	}

	svc := sispendik.NewService(sispendik.Options{
		Store:    sispendik.NewGormStore(db),
		Location: cfg.Location,
		Sections: cfg.ClassSections,
	})

	cli := &commandLine{
		migrate: func() error { return database.Migrate(db) },
		seedClasses: func(ctx context.Context) (int, error) {
			return svc.SeedClasses(ctx)
		},
		createUser: func(name, email, password string, role models.UserRole) error {
			_, err := auth.CreateUser(db, name, email, password, role)
			return err
		},
	}

	if err := cli.run(os.Args); err != nil {
		if err == errHelp {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
