package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/foliohq/folio/pkg/models"
)

// ErrReadOnly is returned for every write attempted while the application
// is in read-only mode.
var ErrReadOnly = errors.New("application is in read-only mode")

// ReadOnlyStore wraps a Store and rejects write operations while the
// supplied isReadOnly function reports true.
//
// The read-only state is evaluated on every write, so the application can
// toggle maintenance mode at runtime without recreating the store. Read
// operations always pass through. Analytics event recording counts as a
// write and is rejected too; dropping a page-view during a maintenance
// window is preferable to a partial write.
type ReadOnlyStore struct {
	Store
	isReadOnly func() bool
}

// NewReadOnlyStore creates a read-only wrapper for a store.
func NewReadOnlyStore(s Store, isReadOnly func() bool) *ReadOnlyStore {
	return &ReadOnlyStore{
		Store:      s,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying store.
func (r *ReadOnlyStore) Unwrap() Store {
	return r.Store
}

func (r *ReadOnlyStore) checkReadOnly() error {
	if r.isReadOnly() {
		return fmt.Errorf("operation denied: %w", ErrReadOnly)
	}
	return nil
}

func (r *ReadOnlyStore) CreateProject(ctx context.Context, p *models.Project) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateProject(ctx, p)
}

func (r *ReadOnlyStore) UpdateProject(ctx context.Context, p *models.Project) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateProject(ctx, p)
}

func (r *ReadOnlyStore) DeleteProject(ctx context.Context, id models.ProjectID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteProject(ctx, id)
}

func (r *ReadOnlyStore) CreateMessage(ctx context.Context, m *models.ContactMessage) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateMessage(ctx, m)
}

func (r *ReadOnlyStore) SetMessageStatus(ctx context.Context, id models.MessageID, status models.MessageStatus) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.SetMessageStatus(ctx, id, status)
}

func (r *ReadOnlyStore) DeleteMessage(ctx context.Context, id models.MessageID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteMessage(ctx, id)
}

func (r *ReadOnlyStore) EnsureProfile(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.EnsureProfile(ctx)
}

func (r *ReadOnlyStore) UpdateProfile(ctx context.Context, p *models.Profile) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateProfile(ctx, p)
}

func (r *ReadOnlyStore) EnsureResume(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.EnsureResume(ctx)
}

func (r *ReadOnlyStore) UpdateResume(ctx context.Context, res *models.Resume) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.UpdateResume(ctx, res)
}

func (r *ReadOnlyStore) EnsureAnalytics(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.EnsureAnalytics(ctx)
}

func (r *ReadOnlyStore) RecordPageView(ctx context.Context, path string) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.RecordPageView(ctx, path)
}

func (r *ReadOnlyStore) RecordDownload(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.RecordDownload(ctx)
}

func (r *ReadOnlyStore) RecordMessage(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.RecordMessage(ctx)
}

func (r *ReadOnlyStore) SyncProjectCount(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.SyncProjectCount(ctx)
}
