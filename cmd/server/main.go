package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"

	"github.com/openmicnights/openmic/internal/config"
	"github.com/openmicnights/openmic/internal/database"
	"github.com/openmicnights/openmic/internal/handler"
	"github.com/openmicnights/openmic/internal/logger"
	"github.com/openmicnights/openmic/internal/queue"
	"github.com/openmicnights/openmic/internal/repository"
	"github.com/openmicnights/openmic/internal/router"
	"github.com/openmicnights/openmic/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins
	cfg := config.Load()
	zlog := logger.New(cfg.Env)
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		zlog.Warn("redis unavailable; rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	shows := repository.NewShowRepo(db)
	instances := repository.NewInstanceRepo(db)
	signups := repository.NewSignupRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	roles := service.NewRoleResolver(roleRepo)
	mat := service.NewMaterializer(shows, instances, zlog)
	gate := service.NewSignupService(shows, instances, signups, roles, zlog)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Show:     &handler.ShowHandler{Cfg: cfg, Shows: shows, Users: users, RoleRepo: roleRepo, Roles: roles, Mat: mat, Log: zlog},
		Instance: &handler.InstanceHandler{Shows: shows, Instances: instances, Signups: signups, RoleRepo: roleRepo, Roles: roles, Log: zlog},
		Signup:   &handler.SignupHandler{Gate: gate, Signups: signups},
		Lineup:   &handler.LineupHandler{Shows: shows, Instances: instances, Signups: signups, Roles: roles, Gate: gate},
		Public:   &handler.PublicHandler{Shows: shows, Instances: instances, Signups: signups, RoleRepo: roleRepo, Gate: gate},
		Calendar: &handler.CalendarHandler{Shows: shows, Instances: instances},
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg, rdb)

	// Nightly maintenance: extend instance coverage and drop expired
	// refresh tokens.
	cr := cron.New()
	if _, err := cr.AddFunc(cfg.Scheduler.MaterializeCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		now := time.Now().UTC()
		created, err := mat.MaterializeAll(ctx, cfg.Scheduler.HorizonDays, now)
		if err != nil {
			zlog.Errorw("nightly materialization failed", "error", err)
		} else {
			zlog.Infow("nightly materialization complete", "created", created)
		}
		if n, err := tokens.PurgeExpired(ctx, now.AddDate(0, 0, -7)); err == nil && n > 0 {
			zlog.Infow("purged expired refresh tokens", "count", n)
		}
	}); err != nil {
		log.Fatalf("cron: invalid materialize schedule %q: %v", cfg.Scheduler.MaterializeCron, err)
	}
	cr.Start()
	defer cr.Stop()

	// Broker consumer appends confirmations to logs/signups.log. Runs
	// its own reconnect loop; never takes the server down.
	go func() {
		if err := queue.StartSignupConsumer(); err != nil {
			zlog.Errorw("signup consumer stopped", "error", err)
		}
	}()

	addr := ":" + cfg.Port
	zlog.Infow("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
