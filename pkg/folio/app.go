// Package folio wires the portfolio application together: configuration,
// the SurrealDB store, the synchronization views serving the public site,
// the upload pipeline, and the HTTP surface.
package folio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliohq/folio/pkg/cache"
	"github.com/foliohq/folio/pkg/models"
	"github.com/foliohq/folio/pkg/quota"
	"github.com/foliohq/folio/pkg/store"
	"github.com/foliohq/folio/pkg/store/surreal"
	"github.com/foliohq/folio/pkg/upload"
	"github.com/foliohq/folio/pkg/views"
)

// Config holds application configuration. Credentials and the admin
// identity come exclusively from flags or the environment; there are no
// hard-coded fallbacks.
type Config struct {
	// Document store connection.
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	// AdminEmail is the single identity allowed into the dashboard. A
	// credential record whose email differs is rejected even when the
	// password verifies.
	AdminEmail string

	// JWTSecret signs dashboard session tokens.
	JWTSecret string

	// SessionTTL bounds dashboard sessions. Zero means 12 hours.
	SessionTTL time.Duration

	// CachePath is the SQLite file backing the local persistent cache.
	// Empty disables caching.
	CachePath string

	// CacheTTL is the freshness window for cached snapshots. Zero means
	// cache.DefaultTTL.
	CacheTTL time.Duration

	// Live switches the serving views from one-shot to live mode.
	Live bool

	// Upload targets. CDNUploadURL empty disables the CDN path and all
	// uploads land on local disk.
	CDNUploadURL string
	CDNPreset    string
	UploadDir    string

	// Rate limiting for the public endpoints, requests per minute per
	// client IP. Zero disables limiting.
	RateLimitPerMin int

	ReadOnly bool

	ServerPort string
}

// Validate checks the parts of the configuration that have no usable
// default.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AdminEmail) == "" {
		return fmt.Errorf("admin email is required (FOLIO_ADMIN_EMAIL)")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT secret is required (FOLIO_JWT_SECRET)")
	}
	return nil
}

// App holds the application state.
type App struct {
	config   *Config
	log      zerolog.Logger
	store    store.Store
	surreal  *surreal.SurrealStore
	cache    *cache.Cache
	meter    *quota.Counter
	uploads  *upload.Pipeline
	fsStore  *upload.FSStore
	sessions *sessionRegistry
	limiter  *rateLimiter
	readOnly atomic.Bool

	serving *servingViews
}

// servingViews are the long-lived views backing the public read endpoints.
// They give the public site cache-first reads and, in live mode, push-based
// freshness without per-request store traffic.
type servingViews struct {
	projects  *views.Collection[[]models.Project]
	clients   *views.Collection[[]models.Client]
	profile   *views.Singleton[models.Profile]
	resume    *views.Singleton[models.Resume]
	analytics *views.Singleton[models.Analytics]
}

// New creates the application: connects the store, opens the local cache,
// and builds the upload pipeline. Views are started later by Run so that
// one-off commands (migrate, seed) do not open subscriptions.
func New(config *Config, log zerolog.Logger) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sdb, err := surreal.New(
		config.SurrealDBURL,
		config.SurrealDBNS,
		config.SurrealDBDB,
		config.SurrealDBUser,
		config.SurrealDBPass,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}
	log.Info().Str("url", config.SurrealDBURL).Msg("connected to SurrealDB")

	app := &App{
		config:   config,
		log:      log,
		surreal:  sdb,
		meter:    quota.NewCounter(),
		sessions: newSessionRegistry(),
	}
	app.readOnly.Store(config.ReadOnly)
	app.store = store.NewReadOnlyStore(sdb, app.IsReadOnly)

	if config.CachePath != "" {
		c, err := cache.Open(config.CachePath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open local cache: %w", err)
		}
		app.cache = c
	}

	uploadDir := config.UploadDir
	if uploadDir == "" {
		uploadDir = filepath.Join(os.TempDir(), "folio-uploads")
	}
	fsStore, err := upload.NewFSStore(uploadDir, "/uploads")
	if err != nil {
		return nil, err
	}
	app.fsStore = fsStore

	if config.CDNUploadURL != "" {
		app.uploads = upload.NewPipeline(upload.NewCDNStore(config.CDNUploadURL, config.CDNPreset), fsStore, log)
	} else {
		app.uploads = upload.NewPipeline(fsStore, nil, log)
	}

	if config.RateLimitPerMin > 0 {
		app.limiter = newRateLimiter(config.RateLimitPerMin, time.Minute)
	}

	return app, nil
}

// Close releases the application's resources.
func (a *App) Close() error {
	if a.serving != nil {
		a.serving.close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close local cache")
		}
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the store the handlers use. Useful for tests.
func (a *App) Store() store.Store { return a.store }

// Meter returns the remote-operation counter.
func (a *App) Meter() *quota.Counter { return a.meter }

// IsReadOnly reports the runtime read-only state.
func (a *App) IsReadOnly() bool { return a.readOnly.Load() }

// SetReadOnly toggles the runtime read-only state.
func (a *App) SetReadOnly(v bool) { a.readOnly.Store(v) }

func (a *App) viewConfig() views.Config {
	cfg := views.Config{
		Meter:  a.meter,
		Logger: a.log,
	}
	if a.cache != nil {
		cfg.Cache = a.cache
	}
	return cfg
}

func (a *App) viewOptions(key string) views.Options {
	return views.Options{
		Live:        a.config.Live,
		CacheKey:    key,
		CacheTTL:    a.config.CacheTTL,
		AutoRefetch: true,
	}
}

// startViews builds and starts the serving views. The singleton views
// create their default documents on first observed absence.
func (a *App) startViews(ctx context.Context) error {
	sv := &servingViews{
		projects:  views.NewCollection(a.surreal.ProjectsSource(), a.viewOptions("projects"), a.viewConfig()),
		clients:   views.NewCollection(a.surreal.ClientsSource(), a.viewOptions("clients"), a.viewConfig()),
		profile:   views.NewSingleton(a.surreal.ProfileSource(), a.store.EnsureProfile, a.viewOptions("profile"), a.viewConfig()),
		resume:    views.NewSingleton(a.surreal.ResumeSource(), a.store.EnsureResume, a.viewOptions("resume"), a.viewConfig()),
		analytics: views.NewSingleton(a.surreal.AnalyticsSource(), a.store.EnsureAnalytics, a.viewOptions("analytics"), a.viewConfig()),
	}

	// Compare content, not timestamps, so no-op dashboard saves skip the
	// remote write.
	sv.profile.SetEqual(func(x, y *models.Profile) bool {
		return x.ImageURL == y.ImageURL
	})
	sv.resume.SetEqual(sameResumeFile)

	if err := sv.projects.Start(ctx); err != nil {
		return err
	}
	if err := sv.clients.Start(ctx); err != nil {
		return err
	}
	if err := sv.profile.Start(ctx); err != nil {
		return err
	}
	if err := sv.resume.Start(ctx); err != nil {
		return err
	}
	if err := sv.analytics.Start(ctx); err != nil {
		return err
	}

	a.serving = sv
	return nil
}

func (s *servingViews) close() {
	s.projects.Close()
	s.clients.Close()
	s.profile.Close()
	s.resume.Close()
	s.analytics.Close()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
