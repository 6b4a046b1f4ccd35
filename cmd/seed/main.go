package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/spotit-app/spotit-api/config"
	"github.com/spotit-app/spotit-api/pkg/helpers"
)

// Seeds the base wally roles, a demo user and a couple of wallies so a
// fresh environment can register encounters right away.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	roles := map[string]float64{
		"civilian":  1,
		"celebrity": 2,
		"wizard":    3,
	}
	roleIDs := make(map[string]string, len(roles))
	for name, multiplier := range roles {
		var id string
		err := db.QueryRow(`
			INSERT INTO wally_roles (role, score_multiplier) VALUES ($1, $2)
			ON CONFLICT (role) DO UPDATE SET score_multiplier = EXCLUDED.score_multiplier
			RETURNING id
		`, name, multiplier).Scan(&id)
		if err != nil {
			log.Fatalf("failed to upsert role %s: %v", name, err)
		}
		roleIDs[name] = id
	}
	fmt.Printf("roles ensured: %v\n", roleIDs)

	password := "Password123!"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	var userID string
	err = db.QueryRow(`
		INSERT INTO users (name, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, "Demo User", "demo", "demo@spotit.app", hash).Scan(&userID)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=demo@spotit.app password=%s\n", userID, password)

	wallies := []struct {
		name, email, role string
	}{
		{"Waldo", "waldo@spotit.app", "wizard"},
		{"Carmen", "carmen@spotit.app", "celebrity"},
		{"Otto", "otto@spotit.app", "civilian"},
	}
	for _, w := range wallies {
		var id string
		err := db.QueryRow(`
			INSERT INTO wallies (name, email, role_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO UPDATE SET role_id = EXCLUDED.role_id
			RETURNING id
		`, w.name, w.email, roleIDs[w.role]).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed wally %s: %v", w.name, err)
		}
		fmt.Printf("seeded wally: id=%s name=%s role=%s\n", id, w.name, w.role)
	}
}
