package main

import (
	"context"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/spacehub/spacehub-api/internal/config"
	"github.com/spacehub/spacehub-api/internal/domain/availability"
	"github.com/spacehub/spacehub-api/internal/domain/booking"
	"github.com/spacehub/spacehub-api/internal/domain/earnings"
	"github.com/spacehub/spacehub-api/internal/domain/notification"
	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/middleware"
	"github.com/spacehub/spacehub-api/internal/pkg/database"
	"github.com/spacehub/spacehub-api/internal/pkg/email"
	"github.com/spacehub/spacehub-api/internal/pkg/jwt"
	"github.com/spacehub/spacehub-api/internal/pkg/logger"
	pkgresponse "github.com/spacehub/spacehub-api/internal/pkg/response"
	"github.com/spacehub/spacehub-api/migrations"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to init logger")
	}

	// Money is rendered as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting SpaceHub API")

	db, err := database.NewPostgres(database.PostgresConfig{URL: cfg.DatabaseURL})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	if err := database.Migrate(migrateCtx, db, migrations.FS); err != nil {
		cancelMigrate()
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	cancelMigrate()

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	roomRepo := room.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	earningsRepo := earnings.NewRepository(db)

	// ---------- Availability ----------
	availabilityCache := availability.NewCache(redis, cfg.AvailabilityCacheTTL)
	checker := availability.NewChecker(roomRepo, booking.NewOccupancySource(bookingRepo)).
		WithCache(availabilityCache)

	hub := availability.NewHub(checker, redis)
	go hub.Run()
	defer hub.Stop()

	changes := availability.NewNotifier(availabilityCache, hub)

	// ---------- Services ----------
	roomService := room.NewService(roomRepo, changes)
	earningsService := earnings.NewService(earningsRepo)

	emailService := email.NewService(email.NewSendGridClient(email.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
	}))
	defer emailService.Close()
	mailer := notification.NewBookingMailer(emailService, userRepo, roomRepo, cfg.FrontendURL)

	bookingService := booking.NewService(bookingRepo, roomRepo, checker, changes, mailer, earningsService)

	cleanupWorker := booking.NewCleanupWorker(bookingService, cfg.BookingCleanupInterval, cfg.BookingRetention)
	cleanupWorker.Start()
	defer cleanupWorker.Stop()

	// ---------- Handlers ----------
	handlers := routeHandlers{
		room:         room.NewHandler(roomService),
		availability: availability.NewHandler(checker, hub, cfg.AllowedOrigins),
		booking:      booking.NewHandler(bookingService),
		earnings:     earnings.NewHandler(earningsService),
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, jwtService, handlers),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

type routeHandlers struct {
	room         *room.Handler
	availability *availability.Handler
	booking      *booking.Handler
	earnings     *earnings.Handler
}

func newRouter(cfg *config.Config, jwtService *jwt.Service, h routeHandlers) http.Handler {
	authMiddleware := middleware.Auth(jwtService)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})
	r.With(authMiddleware, middleware.RequireAdmin()).Get("/debug/vars", expvar.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		// The availability router serves the websocket watch endpoint and
		// stays outside the request timeout.
		r.Mount("/rooms/{id}/availability", h.availability.Routes())

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Mount("/rooms", h.room.Routes(authMiddleware))
			r.Mount("/bookings", h.booking.Routes(authMiddleware))
			r.Mount("/earnings", h.earnings.Routes(authMiddleware))
			r.Mount("/admin/bookings", h.booking.AdminRoutes(authMiddleware))
		})
	})

	return r
}
