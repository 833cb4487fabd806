package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliohq/folio/pkg/models"
)

// recordingStore counts every call that reaches the wrapped store.
type recordingStore struct {
	reads  int
	writes int
}

func (s *recordingStore) CreateProject(ctx context.Context, p *models.Project) error {
	s.writes++
	return nil
}

func (s *recordingStore) GetProject(ctx context.Context, id models.ProjectID) (*models.Project, error) {
	s.reads++
	return nil, nil
}

func (s *recordingStore) UpdateProject(ctx context.Context, p *models.Project) error {
	s.writes++
	return nil
}

func (s *recordingStore) DeleteProject(ctx context.Context, id models.ProjectID) error {
	s.writes++
	return nil
}

func (s *recordingStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	s.reads++
	return nil, nil
}

func (s *recordingStore) CountProjects(ctx context.Context) (int64, error) {
	s.reads++
	return 0, nil
}

func (s *recordingStore) CreateMessage(ctx context.Context, m *models.ContactMessage) error {
	s.writes++
	return nil
}

func (s *recordingStore) ListMessages(ctx context.Context) ([]models.ContactMessage, error) {
	s.reads++
	return nil, nil
}

func (s *recordingStore) SetMessageStatus(ctx context.Context, id models.MessageID, status models.MessageStatus) error {
	s.writes++
	return nil
}

func (s *recordingStore) DeleteMessage(ctx context.Context, id models.MessageID) error {
	s.writes++
	return nil
}

func (s *recordingStore) GetProfile(ctx context.Context) (*models.Profile, error) {
	s.reads++
	return nil, nil
}

func (s *recordingStore) EnsureProfile(ctx context.Context) error {
	s.writes++
	return nil
}

func (s *recordingStore) UpdateProfile(ctx context.Context, p *models.Profile) error {
	s.writes++
	return nil
}

func (s *recordingStore) GetResume(ctx context.Context) (*models.Resume, error) {
	s.reads++
	return nil, nil
}

func (s *recordingStore) EnsureResume(ctx context.Context) error {
	s.writes++
	return nil
}

func (s *recordingStore) UpdateResume(ctx context.Context, r *models.Resume) error {
	s.writes++
	return nil
}

func (s *recordingStore) GetAnalytics(ctx context.Context) (*models.Analytics, error) {
	s.reads++
	return nil, nil
}

func (s *recordingStore) EnsureAnalytics(ctx context.Context) error {
	s.writes++
	return nil
}

func (s *recordingStore) RecordPageView(ctx context.Context, path string) error {
	s.writes++
	return nil
}

func (s *recordingStore) RecordDownload(ctx context.Context) error {
	s.writes++
	return nil
}

func (s *recordingStore) RecordMessage(ctx context.Context) error {
	s.writes++
	return nil
}

func (s *recordingStore) SyncProjectCount(ctx context.Context) error {
	s.writes++
	return nil
}

func (s *recordingStore) ListClients(ctx context.Context) ([]models.Client, error) {
	s.reads++
	return nil, nil
}

func (s *recordingStore) GetAdmin(ctx context.Context, email string) (*models.Admin, error) {
	s.reads++
	return nil, nil
}

func (s *recordingStore) Close() error { return nil }

func TestReadOnlyStoreBlocksWrites(t *testing.T) {
	inner := &recordingStore{}
	readOnly := true
	ro := NewReadOnlyStore(inner, func() bool { return readOnly })
	ctx := context.Background()

	writes := []func() error{
		func() error { return ro.CreateProject(ctx, &models.Project{}) },
		func() error { return ro.UpdateProject(ctx, &models.Project{}) },
		func() error { return ro.DeleteProject(ctx, models.NewProjectID()) },
		func() error { return ro.CreateMessage(ctx, &models.ContactMessage{}) },
		func() error { return ro.SetMessageStatus(ctx, models.NewMessageID(), models.StatusRead) },
		func() error { return ro.DeleteMessage(ctx, models.NewMessageID()) },
		func() error { return ro.EnsureProfile(ctx) },
		func() error { return ro.UpdateProfile(ctx, &models.Profile{}) },
		func() error { return ro.EnsureResume(ctx) },
		func() error { return ro.UpdateResume(ctx, &models.Resume{}) },
		func() error { return ro.EnsureAnalytics(ctx) },
		func() error { return ro.RecordPageView(ctx, "/") },
		func() error { return ro.RecordDownload(ctx) },
		func() error { return ro.RecordMessage(ctx) },
		func() error { return ro.SyncProjectCount(ctx) },
	}

	for i, write := range writes {
		err := write()
		require.Error(t, err, "write %d should be rejected", i)
		assert.Contains(t, err.Error(), "read-only")
	}
	assert.Zero(t, inner.writes, "no write may reach the wrapped store")
}

func TestReadOnlyStorePassesReads(t *testing.T) {
	inner := &recordingStore{}
	ro := NewReadOnlyStore(inner, func() bool { return true })
	ctx := context.Background()

	_, err := ro.ListProjects(ctx)
	require.NoError(t, err)
	_, err = ro.GetProfile(ctx)
	require.NoError(t, err)
	_, err = ro.GetAnalytics(ctx)
	require.NoError(t, err)
	_, err = ro.GetAdmin(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, 4, inner.reads)
}

func TestReadOnlyStoreTogglesAtRuntime(t *testing.T) {
	inner := &recordingStore{}
	readOnly := false
	ro := NewReadOnlyStore(inner, func() bool { return readOnly })
	ctx := context.Background()

	require.NoError(t, ro.CreateProject(ctx, &models.Project{}))
	assert.Equal(t, 1, inner.writes)

	readOnly = true
	require.Error(t, ro.CreateProject(ctx, &models.Project{}))
	assert.Equal(t, 1, inner.writes)

	readOnly = false
	require.NoError(t, ro.CreateProject(ctx, &models.Project{}))
	assert.Equal(t, 2, inner.writes)
}

func TestReadOnlyStoreUnwrap(t *testing.T) {
	inner := &recordingStore{}
	ro := NewReadOnlyStore(inner, func() bool { return true })
	assert.Same(t, inner, ro.Unwrap())
}

func TestQuotaError(t *testing.T) {
	qe := &QuotaError{Err: assert.AnError}
	assert.ErrorIs(t, qe, ErrResourceExhausted)
	assert.ErrorIs(t, qe, assert.AnError)
	assert.Equal(t, CodeResourceExhausted, Code(qe))
	assert.Empty(t, Code(assert.AnError))
}
