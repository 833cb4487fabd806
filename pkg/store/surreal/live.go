package surreal

import (
	"context"
	"sync"

	"github.com/surrealdb/surrealdb.go"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliohq/folio/pkg/models"
	"github.com/foliohq/folio/pkg/views"
)

// tableSource adapts one table (or fixed-address singleton) to
// views.Source. Notifications are used purely as change signals: every
// notification triggers a re-fetch of the full value, so consumers always
// see a complete consistent snapshot rather than a patched partial one.
type tableSource[T any] struct {
	store *SurrealStore
	table string
	fetch func(ctx context.Context) (T, error)
}

func (t *tableSource[T]) Fetch(ctx context.Context) (T, error) {
	return t.fetch(ctx)
}

func (t *tableSource[T]) Subscribe(ctx context.Context) (<-chan views.Update[T], func(), error) {
	live, err := surrealdb.Live(ctx, t.store.db, surrealdb_models.Table(t.table), false)
	if err != nil {
		return nil, nil, wrapErr("failed to open live query", err)
	}
	liveID := live.String()

	notifications, err := t.store.db.LiveNotifications(liveID)
	if err != nil {
		_ = surrealdb.Kill(ctx, t.store.db, liveID)
		return nil, nil, wrapErr("failed to attach live notifications", err)
	}

	out := make(chan views.Update[T], 16)

	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			// Kill closes the notification channel, which ends the
			// forwarding goroutine below.
			_ = surrealdb.Kill(context.Background(), t.store.db, liveID)
		})
	}

	go func() {
		defer close(out)
		for range notifications {
			data, ferr := t.fetch(ctx)
			select {
			case out <- views.Update[T]{Data: data, Err: ferr}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, stop, nil
}

// ProjectsSource streams the full project collection.
func (s *SurrealStore) ProjectsSource() views.Source[[]models.Project] {
	return &tableSource[[]models.Project]{store: s, table: "projects", fetch: s.ListProjects}
}

// MessagesSource streams the full contact message collection.
func (s *SurrealStore) MessagesSource() views.Source[[]models.ContactMessage] {
	return &tableSource[[]models.ContactMessage]{store: s, table: "messages", fetch: s.ListMessages}
}

// ClientsSource streams the client engagement records.
func (s *SurrealStore) ClientsSource() views.Source[[]models.Client] {
	return &tableSource[[]models.Client]{store: s, table: "clients", fetch: s.ListClients}
}

// ProfileSource streams the singleton profile document.
func (s *SurrealStore) ProfileSource() views.Source[*models.Profile] {
	return &tableSource[*models.Profile]{store: s, table: "profile", fetch: s.GetProfile}
}

// ResumeSource streams the singleton resume pointer.
func (s *SurrealStore) ResumeSource() views.Source[*models.Resume] {
	return &tableSource[*models.Resume]{store: s, table: "settings", fetch: s.GetResume}
}

// AnalyticsSource streams the singleton analytics counters.
func (s *SurrealStore) AnalyticsSource() views.Source[*models.Analytics] {
	return &tableSource[*models.Analytics]{store: s, table: "analytics", fetch: s.GetAnalytics}
}
