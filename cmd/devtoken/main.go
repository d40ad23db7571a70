package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/merchforge/merchforge-backend/internal/users"
	"github.com/merchforge/merchforge-backend/pkg/auth"
	"github.com/merchforge/merchforge-backend/pkg/config"
	"github.com/merchforge/merchforge-backend/pkg/db"
	"github.com/merchforge/merchforge-backend/pkg/enums"
	"github.com/merchforge/merchforge-backend/pkg/logger"
)

// devtoken provisions a user and prints a signed access token for it. There
// is no login flow, so this is how local clients obtain credentials.
func main() {
	logg := logger.New(logger.Options{ServiceName: "devtoken"})
	_ = godotenv.Load()

	email := flag.String("email", "", "user email (created when missing)")
	name := flag.String("name", "", "user full name")
	roleFlag := flag.String("role", string(enums.UserRoleCustomer), "user role: customer|admin")
	flag.Parse()

	ctx := context.Background()

	role, err := enums.ParseUserRole(*roleFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -role: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "devtoken refuses to run in prod")
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := users.NewService(users.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create users service", err)
		os.Exit(1)
	}

	user, err := svc.Provision(ctx, users.ProvisionInput{Email: *email, FullName: *name, Role: role})
	if err != nil {
		logg.Error(ctx, "failed to provision user", err)
		os.Exit(1)
	}

	now := time.Now()
	token, err := auth.MintAccessToken(cfg.JWT, now, auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		logg.Error(ctx, "failed to mint token", err)
		os.Exit(1)
	}

	out := map[string]any{
		"user":         user,
		"access_token": token,
		"expires_at":   now.Add(time.Duration(cfg.JWT.ExpirationMinutes) * time.Minute).UTC(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
}
