package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"kanvaro_backend/internal/seed"
	"kanvaro_backend/platform/config"
	"kanvaro_backend/platform/db"
	"kanvaro_backend/platform/logger"
)

func main() {
	fixturePath := flag.String("file", "fixtures/workspace.yaml", "path to the workspace fixture")
	migrate := flag.Bool("migrate", true, "run database migrations before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(*fixturePath)
	if err != nil {
		log.Error("failed to open fixture", "path", *fixturePath, "error", err)
		os.Exit(1)
	}
	fixture, err := seed.Parse(file)
	_ = file.Close()
	if err != nil {
		log.Error("invalid fixture", "path", *fixturePath, "error", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if *migrate {
		if _, err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("failed to run database migrations", "error", err)
			os.Exit(1)
		}
	}

	summary, err := seed.New(pool).Load(ctx, fixture)
	if err != nil {
		log.Error("failed to seed workspace", "error", err)
		os.Exit(1)
	}

	log.Info("workspace seeded",
		"users", summary.Users,
		"projects", summary.Projects,
		"epics", summary.Epics,
		"stories", summary.Stories,
		"tasks", summary.Tasks,
	)
}
