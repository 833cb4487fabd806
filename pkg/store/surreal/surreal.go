// Package surreal implements the [store.Store] interface on SurrealDB using
// native SurrealQL.
//
// The connection is configured manually with the surrealcbor codec rather
// than through FromEndpointURLString: the codec gives full control over
// marshaling, which matters for time.Time values and for the typed IDs in
// pkg/models that marshal to RecordIDs.
//
// All queries are parameterized ($param syntax); user-provided values never
// reach a query through string interpolation. Singleton documents live at
// fixed record addresses (profile:main, settings:resume, analytics:main)
// and are initialized idempotently with Ensure methods. Counter mutations
// on analytics:main are expressed as single UPDATE statements so the
// increments are atomic on the server.
package surreal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/foliohq/folio/pkg/models"
	"github.com/foliohq/folio/pkg/store"
)

// SurrealStore implements store.Store against a SurrealDB instance.
type SurrealStore struct {
	db       *surrealdb.DB
	ns       string
	database string
}

var _ store.Store = (*SurrealStore)(nil)

// New connects to SurrealDB over WebSocket with the surrealcbor codec,
// authenticates when credentials are given, and selects the namespace and
// database.
func New(wsURL, namespace, database, username, password string) (*SurrealStore, error) {
	ctx := context.Background()

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// Without the custom codec, time.Time values marshal incorrectly and
	// typed IDs are not recognized as RecordIDs.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &SurrealStore{
		db:       db,
		ns:       namespace,
		database: database,
	}, nil
}

// Migrate initializes the fixed-address singleton documents. SurrealDB
// creates tables implicitly on first insert, so this is the only schema
// work required.
func (s *SurrealStore) Migrate(ctx context.Context) error {
	if err := s.EnsureProfile(ctx); err != nil {
		return err
	}
	if err := s.EnsureResume(ctx); err != nil {
		return err
	}
	return s.EnsureAnalytics(ctx)
}

// Close closes the database connection.
func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// handleNotFound maps the SDK's record-absent errors to nil so callers get
// the nil-without-error contract of store.Store.
func handleNotFound(err error) error {
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "Expected a single or multiple results but got 0") ||
			strings.Contains(errStr, "cannot unmarshal array into Go value") {
			return nil
		}
	}
	return err
}

// alreadyExists reports whether err is the duplicate-record rejection from
// a Create on an existing record ID.
func alreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

// wrapErr normalizes store errors: quota rejections become QuotaError so
// they unwrap to store.ErrResourceExhausted; everything else keeps the
// operation context.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isQuotaErr(err) {
		return &store.QuotaError{Err: fmt.Errorf("%s: %w", op, err)}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isQuotaErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

// Project operations

func (s *SurrealStore) CreateProject(ctx context.Context, p *models.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID.IsZero() {
		p.ID = models.NewProjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	// Typed IDs handle RecordID marshaling automatically.
	_, err := surrealdb.Create[models.Project](ctx, s.db, "projects", p)
	return wrapErr("failed to create project", err)
}

func (s *SurrealStore) GetProject(ctx context.Context, id models.ProjectID) (*models.Project, error) {
	rid := id.RecordID()
	project, err := surrealdb.Select[models.Project](ctx, s.db, rid)
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, wrapErr("failed to get project", err)
	}
	return project, nil
}

func (s *SurrealStore) UpdateProject(ctx context.Context, p *models.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	rid := p.ID.RecordID()
	p.UpdatedAt = time.Now()

	_, err := surrealdb.Update[models.Project](ctx, s.db, rid, p)
	return wrapErr("failed to update project", err)
}

func (s *SurrealStore) DeleteProject(ctx context.Context, id models.ProjectID) error {
	rid := id.RecordID()
	_, err := surrealdb.Delete[models.Project](ctx, s.db, rid)
	return wrapErr("failed to delete project", err)
}

func (s *SurrealStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	query := "SELECT * FROM projects ORDER BY created_at DESC"
	result, err := surrealdb.Query[[]models.Project](ctx, s.db, query, nil)
	if err != nil {
		return nil, wrapErr("failed to list projects", err)
	}

	var projects []models.Project
	if result != nil && len(*result) > 0 {
		projects = (*result)[0].Result
	}
	return projects, nil
}

func (s *SurrealStore) CountProjects(ctx context.Context) (int64, error) {
	query := "SELECT count() AS total FROM projects GROUP ALL"
	result, err := surrealdb.Query[[]struct {
		Total int64 `json:"total"`
	}](ctx, s.db, query, nil)
	if err != nil {
		return 0, wrapErr("failed to count projects", err)
	}

	if result != nil && len(*result) > 0 && len((*result)[0].Result) > 0 {
		return (*result)[0].Result[0].Total, nil
	}
	return 0, nil
}

// Contact message operations

func (s *SurrealStore) CreateMessage(ctx context.Context, m *models.ContactMessage) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.ID.IsZero() {
		m.ID = models.NewMessageID()
	}
	if m.Status == "" {
		m.Status = models.StatusNew
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now()
	}

	_, err := surrealdb.Create[models.ContactMessage](ctx, s.db, "messages", m)
	return wrapErr("failed to create message", err)
}

func (s *SurrealStore) ListMessages(ctx context.Context) ([]models.ContactMessage, error) {
	query := "SELECT * FROM messages ORDER BY created_at DESC"
	result, err := surrealdb.Query[[]models.ContactMessage](ctx, s.db, query, nil)
	if err != nil {
		return nil, wrapErr("failed to list messages", err)
	}

	var messages []models.ContactMessage
	if result != nil && len(*result) > 0 {
		messages = (*result)[0].Result
	}
	return messages, nil
}

func (s *SurrealStore) SetMessageStatus(ctx context.Context, id models.MessageID, status models.MessageStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("message: %w: status %q", models.ErrInvalidValue, status)
	}
	rid := id.RecordID()
	_, err := surrealdb.Merge[models.ContactMessage](ctx, s.db, rid, map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	})
	return wrapErr("failed to set message status", err)
}

func (s *SurrealStore) DeleteMessage(ctx context.Context, id models.MessageID) error {
	rid := id.RecordID()
	_, err := surrealdb.Delete[models.ContactMessage](ctx, s.db, rid)
	return wrapErr("failed to delete message", err)
}

// Singleton documents

func (s *SurrealStore) GetProfile(ctx context.Context) (*models.Profile, error) {
	profile, err := surrealdb.Select[models.Profile](ctx, s.db, models.ProfileRecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, wrapErr("failed to get profile", err)
	}
	return profile, nil
}

func (s *SurrealStore) EnsureProfile(ctx context.Context) error {
	_, err := surrealdb.Create[models.Profile](ctx, s.db, models.ProfileRecordID(), &models.Profile{
		UpdatedAt: time.Now(),
	})
	if alreadyExists(err) {
		return nil
	}
	return wrapErr("failed to ensure profile", err)
}

func (s *SurrealStore) UpdateProfile(ctx context.Context, p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()
	_, err := surrealdb.Update[models.Profile](ctx, s.db, models.ProfileRecordID(), p)
	return wrapErr("failed to update profile", err)
}

func (s *SurrealStore) GetResume(ctx context.Context) (*models.Resume, error) {
	resume, err := surrealdb.Select[models.Resume](ctx, s.db, models.ResumeRecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, wrapErr("failed to get resume", err)
	}
	return resume, nil
}

func (s *SurrealStore) EnsureResume(ctx context.Context) error {
	_, err := surrealdb.Create[models.Resume](ctx, s.db, models.ResumeRecordID(), &models.Resume{
		UploadedAt: time.Now(),
	})
	if alreadyExists(err) {
		return nil
	}
	return wrapErr("failed to ensure resume", err)
}

func (s *SurrealStore) UpdateResume(ctx context.Context, r *models.Resume) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.UploadedAt.IsZero() {
		r.UploadedAt = time.Now()
	}
	_, err := surrealdb.Update[models.Resume](ctx, s.db, models.ResumeRecordID(), r)
	return wrapErr("failed to update resume", err)
}

// Analytics

func (s *SurrealStore) GetAnalytics(ctx context.Context) (*models.Analytics, error) {
	analytics, err := surrealdb.Select[models.Analytics](ctx, s.db, models.AnalyticsRecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, wrapErr("failed to get analytics", err)
	}
	return analytics, nil
}

func (s *SurrealStore) EnsureAnalytics(ctx context.Context) error {
	_, err := surrealdb.Create[models.Analytics](ctx, s.db, models.AnalyticsRecordID(), &models.Analytics{
		DailyViews: map[string]int64{},
		TopPages:   map[string]int64{},
		UpdatedAt:  time.Now(),
	})
	if alreadyExists(err) {
		return nil
	}
	return wrapErr("failed to ensure analytics", err)
}

func (s *SurrealStore) RecordPageView(ctx context.Context, path string) error {
	// Single UPDATE so all three increments apply atomically. Missing map
	// keys default to zero before the increment.
	query := `UPDATE analytics:main SET
		page_views += 1,
		daily_views[$day] = (daily_views[$day] ?? 0) + 1,
		top_pages[$path] = (top_pages[$path] ?? 0) + 1,
		updated_at = time::now()`
	params := map[string]any{
		"day":  time.Now().UTC().Format(models.DayKey),
		"path": path,
	}
	_, err := surrealdb.Query[any](ctx, s.db, query, params)
	return wrapErr("failed to record page view", err)
}

func (s *SurrealStore) RecordDownload(ctx context.Context) error {
	query := "UPDATE analytics:main SET download_count += 1, updated_at = time::now()"
	_, err := surrealdb.Query[any](ctx, s.db, query, nil)
	return wrapErr("failed to record download", err)
}

func (s *SurrealStore) RecordMessage(ctx context.Context) error {
	query := "UPDATE analytics:main SET message_count += 1, updated_at = time::now()"
	_, err := surrealdb.Query[any](ctx, s.db, query, nil)
	return wrapErr("failed to record message", err)
}

func (s *SurrealStore) SyncProjectCount(ctx context.Context) error {
	// Re-derive the counter from the collection instead of incrementing,
	// so a missed event cannot leave it permanently skewed.
	query := `UPDATE analytics:main SET
		project_count = (SELECT VALUE count() FROM projects GROUP ALL)[0] ?? 0,
		updated_at = time::now()`
	_, err := surrealdb.Query[any](ctx, s.db, query, nil)
	return wrapErr("failed to sync project count", err)
}

// Clients

func (s *SurrealStore) ListClients(ctx context.Context) ([]models.Client, error) {
	query := "SELECT * FROM clients ORDER BY created_at DESC"
	result, err := surrealdb.Query[[]models.Client](ctx, s.db, query, nil)
	if err != nil {
		return nil, wrapErr("failed to list clients", err)
	}

	var clients []models.Client
	if result != nil && len(*result) > 0 {
		clients = (*result)[0].Result
	}
	return clients, nil
}

// CreateClient inserts a client engagement record. The Store interface
// exposes clients read-only; this is used by seeding.
func (s *SurrealStore) CreateClient(ctx context.Context, c *models.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID.IsZero() {
		c.ID = models.NewClientID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := surrealdb.Create[models.Client](ctx, s.db, "clients", c)
	return wrapErr("failed to create client", err)
}

// Admin credentials

func (s *SurrealStore) GetAdmin(ctx context.Context, email string) (*models.Admin, error) {
	query := "SELECT * FROM admins WHERE email = $email"
	params := map[string]any{
		"email": email,
	}
	result, err := surrealdb.Query[[]models.Admin](ctx, s.db, query, params)
	if err != nil {
		return nil, wrapErr("failed to get admin", err)
	}

	if result != nil && len(*result) > 0 && len((*result)[0].Result) > 0 {
		return &(*result)[0].Result[0], nil
	}
	return nil, nil
}

// CreateAdmin inserts a dashboard credential record. Used by seeding; the
// application itself never creates admins.
func (s *SurrealStore) CreateAdmin(ctx context.Context, a *models.Admin) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := surrealdb.Create[models.Admin](ctx, s.db, "admins", a)
	return wrapErr("failed to create admin", err)
}
