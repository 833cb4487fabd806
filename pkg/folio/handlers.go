package folio

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/foliohq/folio/pkg/models"
)

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"live":      a.config.Live,
		"read_only": a.IsReadOnly(),
		"time":      time.Now().UTC(),
	})
}

// portfolioResponse is the aggregated public snapshot rendered by the
// portfolio landing page in a single request.
type portfolioResponse struct {
	Projects    []models.Project `json:"projects"`
	Profile     *models.Profile  `json:"profile"`
	Resume      *models.Resume   `json:"resume"`
	ClientCount int              `json:"client_count"`
	PageViews   int64            `json:"page_views"`
}

func (a *App) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projects, err := a.currentProjects(ctx)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	profile, err := a.currentProfile(ctx)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	resume, err := a.currentResume(ctx)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	clients, err := a.currentClients(ctx)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	var pageViews int64
	if analytics, err := a.currentAnalytics(ctx); err == nil && analytics != nil {
		pageViews = analytics.PageViews
	}

	respondJSON(w, http.StatusOK, portfolioResponse{
		Projects:    projects,
		Profile:     profile,
		Resume:      resume,
		ClientCount: len(clients),
		PageViews:   pageViews,
	})
}

// Snapshot accessors. When the serving views are running, public reads come
// from their snapshots (cache-first, push-updated in live mode) instead of
// hitting the store per request. Commands and tests that never start the
// views fall back to direct reads.

func (a *App) currentProjects(ctx context.Context) ([]models.Project, error) {
	if a.serving != nil {
		snap := a.serving.projects.Snapshot()
		if snap.Err != nil && snap.Data == nil {
			return nil, snap.Err
		}
		return snap.Data, nil
	}
	return a.store.ListProjects(ctx)
}

func (a *App) currentClients(ctx context.Context) ([]models.Client, error) {
	if a.serving != nil {
		snap := a.serving.clients.Snapshot()
		if snap.Err != nil && snap.Data == nil {
			return nil, snap.Err
		}
		return snap.Data, nil
	}
	return a.store.ListClients(ctx)
}

func (a *App) currentProfile(ctx context.Context) (*models.Profile, error) {
	if a.serving != nil {
		snap := a.serving.profile.Snapshot()
		if snap.Err != nil && snap.Data == nil {
			return nil, snap.Err
		}
		return snap.Data, nil
	}
	return a.store.GetProfile(ctx)
}

func (a *App) currentResume(ctx context.Context) (*models.Resume, error) {
	if a.serving != nil {
		snap := a.serving.resume.Snapshot()
		if snap.Err != nil && snap.Data == nil {
			return nil, snap.Err
		}
		return snap.Data, nil
	}
	return a.store.GetResume(ctx)
}

func (a *App) currentAnalytics(ctx context.Context) (*models.Analytics, error) {
	if a.serving != nil {
		snap := a.serving.analytics.Snapshot()
		if snap.Err != nil && snap.Data == nil {
			return nil, snap.Err
		}
		return snap.Data, nil
	}
	return a.store.GetAnalytics(ctx)
}

// Project handlers

func (a *App) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := a.currentProjects(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	respondJSON(w, http.StatusOK, projects)
}

func (a *App) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProjectID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	project, err := a.store.GetProject(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if project == nil {
		respondError(w, http.StatusNotFound, "Project not found")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (a *App) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx := r.Context()
	if err := a.store.CreateProject(ctx, &project); err != nil {
		respondStoreError(w, err)
		return
	}
	a.meter.CountWrites(1)
	a.afterProjectChange(ctx)

	respondJSON(w, http.StatusCreated, project)
}

func (a *App) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProjectID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	project.ID = id

	ctx := r.Context()
	if err := a.store.UpdateProject(ctx, &project); err != nil {
		respondStoreError(w, err)
		return
	}
	a.meter.CountWrites(1)
	a.refreshProjects(ctx)

	respondJSON(w, http.StatusOK, project)
}

func (a *App) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProjectID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	ctx := r.Context()
	if err := a.store.DeleteProject(ctx, id); err != nil {
		respondStoreError(w, err)
		return
	}
	a.meter.CountWrites(1)
	a.afterProjectChange(ctx)

	respondJSON(w, http.StatusNoContent, nil)
}

// afterProjectChange re-derives the project counter and refreshes the
// serving view. The counter sync is best-effort: a failed sync leaves the
// counter stale until the next change, never blocks the mutation.
func (a *App) afterProjectChange(ctx context.Context) {
	if err := a.store.SyncProjectCount(ctx); err != nil {
		a.log.Warn().Err(err).Msg("failed to sync project count")
	}
	a.refreshProjects(ctx)
	a.refreshAnalytics(ctx)
}

func (a *App) refreshProjects(ctx context.Context) {
	if a.serving == nil || a.config.Live {
		return
	}
	if err := a.serving.projects.Refresh(ctx); err != nil {
		a.log.Warn().Err(err).Msg("failed to refresh projects view")
	}
}

// refreshAnalytics keeps the serving analytics snapshot current after
// counter writes. In live mode the subscription already delivers the
// change.
func (a *App) refreshAnalytics(ctx context.Context) {
	if a.serving == nil || a.config.Live {
		return
	}
	if err := a.serving.analytics.Refresh(ctx); err != nil {
		a.log.Warn().Err(err).Msg("failed to refresh analytics view")
	}
}

// Contact message handlers

func (a *App) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var msg models.ContactMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx := r.Context()
	if err := a.store.CreateMessage(ctx, &msg); err != nil {
		respondStoreError(w, err)
		return
	}
	a.meter.CountWrites(1)

	// Counting the message is bookkeeping; the submission already
	// succeeded.
	if err := a.store.RecordMessage(ctx); err != nil {
		a.log.Warn().Err(err).Msg("failed to record message count")
	}
	a.refreshAnalytics(ctx)

	respondJSON(w, http.StatusCreated, msg)
}

func (a *App) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := a.store.ListMessages(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	a.meter.CountReads(1)
	if messages == nil {
		messages = []models.ContactMessage{}
	}
	respondJSON(w, http.StatusOK, messages)
}

func (a *App) handleSetMessageStatus(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseMessageID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	var req struct {
		Status models.MessageStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.store.SetMessageStatus(r.Context(), id, req.Status); err != nil {
		respondStoreError(w, err)
		return
	}
	a.meter.CountWrites(1)
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "status": req.Status})
}

func (a *App) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseMessageID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	if err := a.store.DeleteMessage(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	a.meter.CountWrites(1)
	respondJSON(w, http.StatusNoContent, nil)
}

// Client handlers

func (a *App) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := a.currentClients(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	respondJSON(w, http.StatusOK, clients)
}

// Singleton document handlers

func (a *App) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	wrote, err := a.updateProfileDoc(r.Context(), &profile)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"profile": profile, "written": wrote})
}

// updateProfileDoc writes the profile document unless it matches the
// current one, in which case no remote call is made.
func (a *App) updateProfileDoc(ctx context.Context, p *models.Profile) (bool, error) {
	if a.serving != nil {
		return a.serving.profile.Update(ctx, p, func(ctx context.Context) error {
			return a.store.UpdateProfile(ctx, p)
		})
	}

	cur, err := a.store.GetProfile(ctx)
	if err != nil {
		return false, err
	}
	if cur != nil && cur.ImageURL == p.ImageURL {
		return false, nil
	}
	if err := a.store.UpdateProfile(ctx, p); err != nil {
		return false, err
	}
	a.meter.CountWrites(1)
	return true, nil
}

func (a *App) handleUpdateResume(w http.ResponseWriter, r *http.Request) {
	var resume models.Resume
	if err := json.NewDecoder(r.Body).Decode(&resume); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	wrote, err := a.updateResumeDoc(r.Context(), &resume)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"resume": resume, "written": wrote})
}

func (a *App) updateResumeDoc(ctx context.Context, res *models.Resume) (bool, error) {
	if a.serving != nil {
		return a.serving.resume.Update(ctx, res, func(ctx context.Context) error {
			return a.store.UpdateResume(ctx, res)
		})
	}

	cur, err := a.store.GetResume(ctx)
	if err != nil {
		return false, err
	}
	if cur != nil && sameResumeFile(cur, res) {
		return false, nil
	}
	if err := a.store.UpdateResume(ctx, res); err != nil {
		return false, err
	}
	a.meter.CountWrites(1)
	return true, nil
}

func sameResumeFile(a, b *models.Resume) bool {
	return a.FileURL == b.FileURL &&
		a.FileName == b.FileName &&
		a.SizeBytes == b.SizeBytes &&
		a.ContentType == b.ContentType
}

func (a *App) handleGetResume(w http.ResponseWriter, r *http.Request) {
	resume, err := a.currentResume(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if resume == nil || resume.FileURL == "" {
		respondError(w, http.StatusNotFound, "No resume uploaded")
		return
	}
	respondJSON(w, http.StatusOK, resume)
}

// Analytics handlers

func (a *App) handlePageView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.store.RecordPageView(r.Context(), req.Path); err != nil {
		respondStoreError(w, err)
		return
	}
	a.meter.CountWrites(1)
	a.refreshAnalytics(r.Context())
	respondJSON(w, http.StatusAccepted, nil)
}

func (a *App) handleDownload(w http.ResponseWriter, r *http.Request) {
	if err := a.store.RecordDownload(r.Context()); err != nil {
		respondStoreError(w, err)
		return
	}
	a.meter.CountWrites(1)
	a.refreshAnalytics(r.Context())
	respondJSON(w, http.StatusAccepted, nil)
}

// analyticsResponse augments the raw counters with derived series for the
// dashboard charts.
type analyticsResponse struct {
	*models.Analytics
	RecentDailyViews []models.DayCount  `json:"recent_daily_views"`
	RankedTopPages   []models.PageCount `json:"ranked_top_pages"`
}

func (a *App) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := a.currentAnalytics(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if analytics == nil {
		analytics = &models.Analytics{}
	}

	respondJSON(w, http.StatusOK, analyticsResponse{
		Analytics:        analytics,
		RecentDailyViews: analytics.RecentDailyViews(time.Now().UTC(), 30),
		RankedTopPages:   analytics.RankedTopPages(10),
	})
}

func (a *App) handleGetQuota(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.meter.Snapshot())
}

// Mode handlers

func (a *App) handleGetMode(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"read_only": a.IsReadOnly()})
}

func (a *App) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReadOnly bool `json:"read_only"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	a.SetReadOnly(req.ReadOnly)
	respondJSON(w, http.StatusOK, map[string]bool{"read_only": a.IsReadOnly()})
}
