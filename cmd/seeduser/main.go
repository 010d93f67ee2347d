// cmd/seeduser/main.go: creates or resets the bootstrap administrator.
// Usage: go run ./cmd/seeduser (SEED_EMAIL / SEED_PASSWORD override the defaults)
package main

import (
	"context"
	"os"

	"tiendapos/internal/config"
	"tiendapos/internal/infra"
	"tiendapos/internal/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	email := getenv("SEED_EMAIL", "admin@tiendapos.local")
	password := getenv("SEED_PASSWORD", "admin1234")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	user := model.User{
		CI:            getenv("SEED_CI", "0000000"),
		Name:          "Administrador",
		Email:         email,
		Role:          model.RoleAdministrator,
		PasswordHash:  string(hash),
		IsActive:      true,
		EmailVerified: true,
	}
	err = db.WithContext(context.Background()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "role", "is_active", "email_verified"}),
	}).Create(&user).Error
	if err != nil {
		log.Fatal().Err(err).Msg("insert error")
	}
	log.Info().Str("email", email).Msg("administrator created or updated")
}
