package folio

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/foliohq/folio/pkg/models"
)

// Seed provisions the dashboard admin credential for the configured admin
// email and, when requested, a handful of sample records. Running it twice
// for the same email fails on the duplicate admin record rather than
// silently replacing the credential.
func (a *App) Seed(ctx context.Context, cmd *SeedCommand) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	if err := a.surreal.CreateAdmin(ctx, &models.Admin{
		Email:        a.config.AdminEmail,
		PasswordHash: string(hash),
	}); err != nil {
		return err
	}
	a.log.Info().Str("email", a.config.AdminEmail).Msg("admin credential created")

	if err := a.surreal.Migrate(ctx); err != nil {
		return err
	}

	if !cmd.Sample {
		return nil
	}

	projects := []models.Project{
		{
			Title:       "Telemetry dashboard",
			Description: "Real-time fleet telemetry with historical drill-down.",
			TechStack:   []string{"Go", "SurrealDB", "WebSockets"},
			Featured:    true,
		},
		{
			Title:       "Invoice automation",
			Description: "OCR-driven invoice intake and approval workflow.",
			TechStack:   []string{"Go", "PostgreSQL"},
		},
	}
	for i := range projects {
		if err := a.store.CreateProject(ctx, &projects[i]); err != nil {
			return err
		}
	}

	clients := []models.Client{
		{Name: "Ada Byron", Company: "Analytical Ltd", Project: "Telemetry dashboard", CreatedAt: time.Now()},
		{Name: "Grace Hopper", Company: "Compiler Co", Project: "Invoice automation", CreatedAt: time.Now()},
	}
	for i := range clients {
		if err := a.surreal.CreateClient(ctx, &clients[i]); err != nil {
			return err
		}
	}

	if err := a.store.SyncProjectCount(ctx); err != nil {
		return err
	}
	a.log.Info().Int("projects", len(projects)).Int("clients", len(clients)).Msg("sample content created")
	return nil
}
