package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpapi "github.com/cinewave/watchparty/internal/api/http"
	"github.com/cinewave/watchparty/internal/config"
	"github.com/cinewave/watchparty/internal/repository"
	"github.com/cinewave/watchparty/internal/service"
	"github.com/cinewave/watchparty/lib/logger/slogpretty"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	roomRepo := repository.NewInMemoryRoomRepository()
	userRepo := repository.NewInMemoryUserRepository()
	callRepo := repository.NewInMemoryCallRegistry()

	sender := service.NewEventSender(roomRepo, log)
	monitor := service.NewMonitor(sender,
		cfg.Session.HeartbeatInterval,
		cfg.Session.SweepInterval,
		cfg.Session.StaleAfter,
		log,
	)

	roomService := service.NewRoomService(roomRepo, userRepo, callRepo, sender, log,
		cfg.Session.RoomGrace, cfg.HTTP.BaseURL)
	playbackService := service.NewPlaybackService(roomRepo, userRepo, sender, log)
	callService := service.NewCallService(roomRepo, userRepo, callRepo, sender, roomService,
		cfg.WebRTC.STUNServers, log)

	coordinator := service.NewCoordinator(sender, roomService, callService, monitor,
		roomRepo, callRepo, cfg.WebRTC.STUNServers, log)

	sessionController := httpapi.NewSessionController(coordinator, roomService, playbackService, callService, log)
	router := httpapi.SetupRouter(sessionController, coordinator)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go monitor.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	go func() {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
