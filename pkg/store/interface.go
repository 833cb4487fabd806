// Package store defines the persistence boundary between the portfolio
// application and the remote document store.
//
// The [Store] interface is implemented by the SurrealDB-backed store in
// pkg/store/surreal and by test fakes. Get methods for collection entities
// and singletons return nil without error when the record does not exist;
// callers use the nil value, never a sentinel error, to detect absence.
// List methods return empty slices for no results.
//
// All methods accept a context.Context and respect its cancellation. Errors
// caused by store-side rate/quota exhaustion unwrap to
// [ErrResourceExhausted] so that callers can surface them distinctly.
package store

import (
	"context"

	"github.com/foliohq/folio/pkg/models"
)

// Store is the complete persistence interface for the portfolio domain.
type Store interface {
	// Project operations. Projects are created, edited and deleted only
	// through the admin dashboard; the public site reads them.

	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id models.ProjectID) (*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id models.ProjectID) error
	ListProjects(ctx context.Context) ([]models.Project, error)
	CountProjects(ctx context.Context) (int64, error)

	// Contact message operations. Messages are created by the public
	// contact form and mutated only by admin actions.

	CreateMessage(ctx context.Context, m *models.ContactMessage) error
	ListMessages(ctx context.Context) ([]models.ContactMessage, error)
	SetMessageStatus(ctx context.Context, id models.MessageID, status models.MessageStatus) error
	DeleteMessage(ctx context.Context, id models.MessageID) error

	// Singleton documents. Ensure methods initialize the document when it
	// is absent and are idempotent; callers are still expected to guard
	// against issuing more than one Ensure per lifecycle (see pkg/views).

	GetProfile(ctx context.Context) (*models.Profile, error)
	EnsureProfile(ctx context.Context) error
	UpdateProfile(ctx context.Context, p *models.Profile) error

	GetResume(ctx context.Context) (*models.Resume, error)
	EnsureResume(ctx context.Context) error
	UpdateResume(ctx context.Context, r *models.Resume) error

	// Analytics. Record methods issue atomic increments on
	// analytics:main; SyncProjectCount re-derives the project counter
	// from the current collection size.

	GetAnalytics(ctx context.Context) (*models.Analytics, error)
	EnsureAnalytics(ctx context.Context) error
	RecordPageView(ctx context.Context, path string) error
	RecordDownload(ctx context.Context) error
	RecordMessage(ctx context.Context) error
	SyncProjectCount(ctx context.Context) error

	// Clients are a read-only aggregate.
	ListClients(ctx context.Context) ([]models.Client, error)

	// GetAdmin looks up a dashboard credential record by email.
	// Returns nil when no admin with that email exists.
	GetAdmin(ctx context.Context, email string) (*models.Admin, error)

	Close() error
}
