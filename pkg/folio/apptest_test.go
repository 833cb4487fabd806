package folio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/foliohq/folio/pkg/models"
	"github.com/foliohq/folio/pkg/quota"
	"github.com/foliohq/folio/pkg/store"
	"github.com/foliohq/folio/pkg/upload"
)

// memStore is an in-memory store.Store used by HTTP handler tests.
type memStore struct {
	mu sync.Mutex

	projects map[models.ProjectID]*models.Project
	messages map[models.MessageID]*models.ContactMessage
	clients  []models.Client
	profile  *models.Profile
	resume   *models.Resume
	stats    *models.Analytics
	admins   map[string]*models.Admin

	// failWith, when set, is returned by every operation.
	failWith error

	recordMessageCalls int
	syncCountCalls     int
	profileWrites      int
	resumeWrites       int
}

func newMemStore() *memStore {
	return &memStore{
		projects: make(map[models.ProjectID]*models.Project),
		messages: make(map[models.MessageID]*models.ContactMessage),
		admins:   make(map[string]*models.Admin),
	}
}

func (s *memStore) CreateProject(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID.IsZero() {
		p.ID = models.NewProjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *memStore) GetProject(ctx context.Context, id models.ProjectID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	p, ok := s.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) UpdateProject(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if err := p.Validate(); err != nil {
		return err
	}
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *memStore) DeleteProject(ctx context.Context, id models.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	delete(s.projects, id)
	return nil
}

func (s *memStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (s *memStore) CountProjects(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.projects)), s.failWith
}

func (s *memStore) CreateMessage(ctx context.Context, m *models.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if m.Status == "" {
		m.Status = models.StatusNew
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if m.ID.IsZero() {
		m.ID = models.NewMessageID()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *memStore) ListMessages(ctx context.Context) ([]models.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := make([]models.ContactMessage, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, *m)
	}
	return out, nil
}

func (s *memStore) SetMessageStatus(ctx context.Context, id models.MessageID, status models.MessageStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if m, ok := s.messages[id]; ok {
		m.Status = status
		m.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *memStore) DeleteMessage(ctx context.Context, id models.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	delete(s.messages, id)
	return nil
}

func (s *memStore) GetProfile(ctx context.Context) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	if s.profile == nil {
		return nil, nil
	}
	cp := *s.profile
	return &cp, nil
}

func (s *memStore) EnsureProfile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		s.profile = &models.Profile{UpdatedAt: time.Now().UTC()}
	}
	return s.failWith
}

func (s *memStore) UpdateProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	cp := *p
	s.profile = &cp
	s.profileWrites++
	return nil
}

func (s *memStore) GetResume(ctx context.Context) (*models.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	if s.resume == nil {
		return nil, nil
	}
	cp := *s.resume
	return &cp, nil
}

func (s *memStore) EnsureResume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resume == nil {
		s.resume = &models.Resume{UploadedAt: time.Now().UTC()}
	}
	return s.failWith
}

func (s *memStore) UpdateResume(ctx context.Context, r *models.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	cp := *r
	s.resume = &cp
	s.resumeWrites++
	return nil
}

func (s *memStore) GetAnalytics(ctx context.Context) (*models.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	if s.stats == nil {
		return nil, nil
	}
	cp := *s.stats
	return &cp, nil
}

func (s *memStore) EnsureAnalytics(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats == nil {
		s.stats = &models.Analytics{
			DailyViews: make(map[string]int64),
			TopPages:   make(map[string]int64),
		}
	}
	return s.failWith
}

func (s *memStore) RecordPageView(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if s.stats == nil {
		s.stats = &models.Analytics{
			DailyViews: make(map[string]int64),
			TopPages:   make(map[string]int64),
		}
	}
	s.stats.PageViews++
	s.stats.DailyViews[time.Now().UTC().Format(models.DayKey)]++
	s.stats.TopPages[path]++
	return nil
}

func (s *memStore) RecordDownload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if s.stats == nil {
		s.stats = &models.Analytics{}
	}
	s.stats.DownloadCount++
	return nil
}

func (s *memStore) RecordMessage(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.recordMessageCalls++
	return nil
}

func (s *memStore) SyncProjectCount(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.syncCountCalls++
	if s.stats != nil {
		s.stats.ProjectCount = int64(len(s.projects))
	}
	return nil
}

func (s *memStore) ListClients(ctx context.Context) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	return append([]models.Client(nil), s.clients...), nil
}

func (s *memStore) GetAdmin(ctx context.Context, email string) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	admin, ok := s.admins[email]
	if !ok {
		return nil, nil
	}
	cp := *admin
	return &cp, nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) setFailure(err error) {
	s.mu.Lock()
	s.failWith = err
	s.mu.Unlock()
}

const (
	testAdminEmail    = "owner@example.com"
	testAdminPassword = "correct horse"
)

// newTestApp builds an App over a fake store with no serving views, so the
// handlers exercise the direct read path.
func newTestApp(t *testing.T, fake store.Store) *App {
	t.Helper()

	fs, err := upload.NewFSStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	app := &App{
		config: &Config{
			AdminEmail: testAdminEmail,
			JWTSecret:  "test-signing-secret",
			ServerPort: "0",
		},
		log:      zerolog.Nop(),
		meter:    quota.NewCounter(),
		sessions: newSessionRegistry(),
		fsStore:  fs,
	}
	app.uploads = upload.NewPipeline(fs, nil, app.log)
	app.store = store.NewReadOnlyStore(fake, app.IsReadOnly)
	return app
}

// seedAdmin registers a credential record in the fake store.
func seedAdmin(t *testing.T, s *memStore, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s.admins[email] = &models.Admin{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
}

// doJSON performs a request against the app's router and decodes the JSON
// response into out when it is non-nil.
func doJSON(t *testing.T, app *App, method, path, token string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

// login authenticates the configured admin and returns a session token.
func login(t *testing.T, app *App) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	rec := doJSON(t, app, http.MethodPost, "/api/admin/login", "", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	}, &resp)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, resp.Token)
	return resp.Token
}
