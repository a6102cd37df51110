package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uplearn/tutor-scheduler/internal/app"
	"github.com/uplearn/tutor-scheduler/internal/auth"
	"github.com/uplearn/tutor-scheduler/internal/clock"
	"github.com/uplearn/tutor-scheduler/internal/config"
	"github.com/uplearn/tutor-scheduler/internal/controller"
	"github.com/uplearn/tutor-scheduler/internal/repository"
	"github.com/uplearn/tutor-scheduler/internal/service"
)

// profileSource adapts the users client to the view assembler.
type profileSource struct {
	client *auth.Client
}

func (p profileSource) PublicProfile(ctx context.Context, userID string) (*service.PublicProfile, error) {
	profile, err := p.client.GetPublicProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &service.PublicProfile{Name: profile.Name, AvatarURL: profile.AvatarURL}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting tutor scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	slotRepo := repository.NewSlotRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)

	clk := clock.System{}
	availabilitySvc := service.NewAvailabilityService(slotRepo, logger)
	reservationSvc := service.NewReservationService(reservationRepo, slotRepo, clk, logger)
	scheduleSvc := service.NewScheduleService(slotRepo, reservationRepo)

	authClient := auth.NewClient(cfg.UsersServiceURL, cfg.AuthCacheTTL)
	views := service.NewViewAssembler(profileSource{client: authClient}, clk)

	router := controller.NewRouter(
		authClient,
		controller.NewAvailabilityController(availabilitySvc, reservationSvc, logger),
		controller.NewReservationController(reservationSvc, views, logger),
		controller.NewScheduleController(scheduleSvc, logger),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}
