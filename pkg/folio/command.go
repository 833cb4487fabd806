package folio

// Command represents a discrete application operation with its specific
// configuration. Commands are created by [Parse] and executed by [Main]
// through the matching method on [App].
type Command interface {
	// Name returns the command identifier used for routing.
	Name() string
}

// RunCommand starts the HTTP server.
type RunCommand struct{}

func (c *RunCommand) Name() string { return "run" }

// MigrateCommand initializes the fixed-address singleton documents.
// SurrealDB creates tables implicitly, so this is the whole schema setup.
// Safe to run repeatedly.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string { return "migrate" }

// SeedCommand provisions the dashboard admin credential and optional
// sample content. The password is bcrypt-hashed before it reaches the
// store.
type SeedCommand struct {
	// AdminPassword is the plaintext to hash for the admin record.
	AdminPassword string

	// Sample inserts demonstration projects and clients.
	Sample bool
}

func (c *SeedCommand) Name() string { return "seed" }
