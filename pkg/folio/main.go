package folio

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Main is the entry point for the folio application. It parses args,
// builds the App, and executes the selected command. It can be called
// directly from tests without building the binary; the context drives
// graceful shutdown.
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	app, err := New(config, log)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *RunCommand:
		return app.Run(ctx, c)
	case *MigrateCommand:
		return app.Migrate(ctx, c)
	case *SeedCommand:
		return app.Seed(ctx, c)
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}
}

// Migrate executes the migrate command.
func (a *App) Migrate(ctx context.Context, _ *MigrateCommand) error {
	if err := a.surreal.Migrate(ctx); err != nil {
		return err
	}
	a.log.Info().Msg("singleton documents initialized")
	return nil
}
