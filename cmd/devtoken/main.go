// Command devtoken mints an access token for local testing. With -user it
// reads the user's role from the database; otherwise it mints a token for a
// fresh id with the given role.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spacehub/spacehub-api/internal/config"
	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/pkg/database"
	"github.com/spacehub/spacehub-api/internal/pkg/jwt"
	"github.com/spacehub/spacehub-api/internal/pkg/logger"
)

func main() {
	userFlag := flag.String("user", "", "existing user id to look up")
	roleFlag := flag.String("role", string(user.RoleGuest), "role for a synthetic user (guest, host, admin)")
	ttlFlag := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	_ = logger.Init(logger.Config{Level: "warn", Environment: "development"})

	userID := uuid.New()
	role := user.Role(*roleFlag)

	if *userFlag != "" {
		id, err := uuid.Parse(*userFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid user id")
		}

		db, err := database.NewPostgres(database.PostgresConfig{URL: cfg.DatabaseURL, MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.ClosePostgres(db)

		u, err := user.NewRepository(db).GetByID(context.Background(), id)
		if err != nil {
			log.Fatal().Err(err).Str("user_id", id.String()).Msg("Failed to load user")
		}
		userID, role = u.ID, u.Role
	}

	if !user.IsValidRole(string(role)) {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", role)
		os.Exit(2)
	}

	token, err := jwt.NewService(cfg.JWTSecret, *ttlFlag).GenerateAccessToken(userID, string(role))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}

	fmt.Printf("user_id: %s\nrole:    %s\ntoken:   %s\n", userID, role, token)
}
