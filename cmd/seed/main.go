// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (dev@example.com) already exists.
package main

import (
	"context"
	"log"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/auth/service"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/config"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/db"
	orgrepo "github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/repository"
	orgservice "github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/service"
	pollrepo "github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/repository"
	pollservice "github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/service"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/security"
	userdomain "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/domain"
	userrepo "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/repository"
)

const (
	adminEmail   = "dev@example.com"
	managerEmail = "manager@example.com"
	memberEmail  = "member@example.com"
	devPassword  = "Passw0rd!dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("seed already applied (dev@example.com exists), skipping")
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	authSvc := service.NewAuthService(users, hasher, tokens)

	orgs := orgrepo.NewPostgresRepository(conn)
	orgSvc := orgservice.NewService(orgs)
	pollSvc := pollservice.NewService(pollrepo.NewPostgresRepository(conn), orgs)

	if _, err := authSvc.InitAdmin(ctx, adminEmail, devPassword, "Dev Admin"); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	manager, err := authSvc.Register(ctx, managerEmail, devPassword, "Dev Manager", userdomain.RoleManager)
	if err != nil {
		log.Fatalf("seed manager: %v", err)
	}
	member, err := authSvc.Register(ctx, memberEmail, devPassword, "Dev Member", userdomain.RoleUser)
	if err != nil {
		log.Fatalf("seed member: %v", err)
	}

	org, err := orgSvc.Create(ctx, manager.UserID, "Demo Organisation")
	if err != nil {
		log.Fatalf("seed organisation: %v", err)
	}
	if _, err := orgSvc.Join(ctx, member.UserID, org.JoinCode); err != nil {
		log.Fatalf("seed membership: %v", err)
	}
	if _, err := pollSvc.Create(ctx, manager.UserID, false, org.ID, "Where should we hold the demo?", []string{"Onsite", "Remote", "Hybrid"}); err != nil {
		log.Fatalf("seed poll: %v", err)
	}

	log.Printf("seed complete: admin=%s manager=%s member=%s org=%s join-code=%s",
		adminEmail, managerEmail, memberEmail, org.ID, org.JoinCode)
}
