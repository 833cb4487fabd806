package folio

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Run starts the HTTP server.
//
// Public endpoints:
//
//	GET  /api/health                   - Service health status
//	GET  /api/portfolio                - Aggregated public snapshot (projects, profile, resume, client count)
//	GET  /api/projects                 - List projects
//	GET  /api/projects/{id}            - Get one project
//	POST /api/contact                  - Submit a contact message
//	GET  /api/resume                   - Resume pointer
//	POST /api/events/page-view         - Record a page view
//	POST /api/events/download          - Record a resume download
//	GET  /uploads/{file}               - Locally stored upload objects
//
// Dashboard endpoints (JWT required unless noted):
//
//	POST   /api/admin/login            - Exchange credentials for a session token (no JWT)
//	POST   /api/admin/logout           - Revoke the current session
//	GET    /api/admin/me               - Current session identity
//	POST   /api/admin/projects         - Create project
//	PUT    /api/admin/projects/{id}    - Update project
//	DELETE /api/admin/projects/{id}    - Delete project
//	GET    /api/admin/messages         - List contact messages
//	PUT    /api/admin/messages/{id}/status - Set message status
//	DELETE /api/admin/messages/{id}    - Delete message
//	GET    /api/admin/clients          - List client records
//	PUT    /api/admin/profile          - Replace the profile document
//	POST   /api/admin/profile/image    - Upload and crop the profile image
//	PUT    /api/admin/resume           - Replace the resume pointer
//	POST   /api/admin/resume/file      - Upload a new resume file
//	GET    /api/admin/analytics        - Analytics counters and derived series
//	GET    /api/admin/quota            - Remote operation totals for this process
//	GET    /api/admin/mode             - Read-only state
//	POST   /api/admin/mode             - Toggle read-only state
//
// The server supports graceful shutdown through context cancellation; on
// shutdown, active requests get up to 5 seconds to complete.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	if err := a.startViews(ctx); err != nil {
		return fmt.Errorf("failed to start serving views: %w", err)
	}

	router := a.Router()

	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().Str("addr", addr).Bool("live", a.config.Live).Bool("read_only", a.IsReadOnly()).
		Msg("starting folio server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// Router builds the full route table. Split out of Run for tests.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()

	public := api.NewRoute().Subrouter()
	if a.limiter != nil {
		public.Use(a.limiter.middleware)
	}

	public.HandleFunc("/health", a.handleHealth).Methods("GET")
	public.HandleFunc("/portfolio", a.handleGetPortfolio).Methods("GET")
	public.HandleFunc("/projects", a.handleListProjects).Methods("GET")
	public.HandleFunc("/projects/{id}", a.handleGetProject).Methods("GET")
	public.HandleFunc("/contact", a.handleCreateMessage).Methods("POST")
	public.HandleFunc("/resume", a.handleGetResume).Methods("GET")
	public.HandleFunc("/events/page-view", a.handlePageView).Methods("POST")
	public.HandleFunc("/events/download", a.handleDownload).Methods("POST")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/login", a.handleLogin).Methods("POST")

	authed := admin.NewRoute().Subrouter()
	authed.Use(a.requireAdmin)
	authed.HandleFunc("/logout", a.handleLogout).Methods("POST")
	authed.HandleFunc("/me", a.handleMe).Methods("GET")
	authed.HandleFunc("/projects", a.handleCreateProject).Methods("POST")
	authed.HandleFunc("/projects/{id}", a.handleUpdateProject).Methods("PUT")
	authed.HandleFunc("/projects/{id}", a.handleDeleteProject).Methods("DELETE")
	authed.HandleFunc("/messages", a.handleListMessages).Methods("GET")
	authed.HandleFunc("/messages/{id}/status", a.handleSetMessageStatus).Methods("PUT")
	authed.HandleFunc("/messages/{id}", a.handleDeleteMessage).Methods("DELETE")
	authed.HandleFunc("/clients", a.handleListClients).Methods("GET")
	authed.HandleFunc("/profile", a.handleUpdateProfile).Methods("PUT")
	authed.HandleFunc("/profile/image", a.handleUploadProfileImage).Methods("POST")
	authed.HandleFunc("/resume", a.handleUpdateResume).Methods("PUT")
	authed.HandleFunc("/resume/file", a.handleUploadResume).Methods("POST")
	authed.HandleFunc("/analytics", a.handleGetAnalytics).Methods("GET")
	authed.HandleFunc("/quota", a.handleGetQuota).Methods("GET")
	authed.HandleFunc("/mode", a.handleGetMode).Methods("GET")
	authed.HandleFunc("/mode", a.handleSetMode).Methods("POST")

	// Locally stored upload objects.
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(a.fsStore.Dir()))))

	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	return router
}
