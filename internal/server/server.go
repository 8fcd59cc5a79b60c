package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/aseeltv/channelguide/internal/auth"
	"github.com/aseeltv/channelguide/internal/cache"
	"github.com/aseeltv/channelguide/internal/catalog"
	"github.com/aseeltv/channelguide/internal/checkup"
	"github.com/aseeltv/channelguide/internal/config"
	"github.com/aseeltv/channelguide/internal/models"
	"github.com/aseeltv/channelguide/internal/service"
	"github.com/aseeltv/channelguide/internal/store"
)

// Server holds dependencies for the HTTP API.
type Server struct {
	loader  *catalog.Loader
	gate    *auth.Gate
	checker *checkup.Checker
	queue   *cache.Redis // nil when Redis is not configured; imports run inline
	cfg     *config.Config
	mux     *http.ServeMux
}

// New creates a Server and registers routes.
// queue may be nil; playlist imports then run inside the request.
func New(loader *catalog.Loader, gate *auth.Gate, checker *checkup.Checker, queue *cache.Redis, cfg *config.Config) *Server {
	srv := &Server{loader: loader, gate: gate, checker: checker, queue: queue, cfg: cfg, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/checkup", s.handleCheckup)

	// Guide
	s.mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	s.mux.HandleFunc("GET /api/sections", s.handleListSections)
	s.mux.HandleFunc("GET /api/sections/{id}/channels", s.handleSectionChannels)
	s.mux.HandleFunc("GET /api/channels/{id}/playback", s.handlePlayback)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)

	// Admin gate
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/logout", s.handleLogout)

	// Admin surface
	s.mux.HandleFunc("POST /api/admin/sections", s.requireAdmin(s.handleCreateSection))
	s.mux.HandleFunc("PATCH /api/admin/sections/{id}", s.requireAdmin(s.handleUpdateSection))
	s.mux.HandleFunc("DELETE /api/admin/sections/{id}", s.requireAdmin(s.handleDeleteSection))
	s.mux.HandleFunc("POST /api/admin/channels", s.requireAdmin(s.handleCreateChannel))
	s.mux.HandleFunc("PATCH /api/admin/channels/{id}", s.requireAdmin(s.handleUpdateChannel))
	s.mux.HandleFunc("DELETE /api/admin/channels/{id}", s.requireAdmin(s.handleDeleteChannel))
	s.mux.HandleFunc("POST /api/admin/sync", s.requireAdmin(s.handleSync))
	s.mux.HandleFunc("POST /api/admin/import", s.requireAdmin(s.handleImport))

	// Docs
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      withCORS(withLogging(s)),
		ReadTimeout:  10 * time.Second,
		// Long enough for slow inline imports. SSE streams are severed
		// when it elapses; EventSource clients reconnect and re-read.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

// --- health and checkup ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCheckup(w http.ResponseWriter, r *http.Request) {
	report := s.checker.CheckAll(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// --- guide handlers ---

// handleCatalog returns the renderable guide: the active sections, the
// selected section, and the selected section's channels. The optional
// ?section= parameter deep-links a section; unknown or missing ids fall
// back to the first section.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	sections := s.loader.Sections()

	var selected models.Section
	var found bool
	if id := r.URL.Query().Get("section"); id != "" {
		selected, found = s.loader.Section(id)
	}
	if !found && len(sections) > 0 {
		selected, found = sections[0], true
	}

	channels := []models.Channel{}
	selectedID := ""
	if found {
		selectedID = selected.ID
		channels = s.loader.ChannelsBySection(selected.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sections": sections,
		"selected": selectedID,
		"channels": channels,
	})
}

func (s *Server) handleListSections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.loader.Sections())
}

func (s *Server) handleSectionChannels(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.loader.Section(id); !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("section %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, s.loader.ChannelsBySection(id))
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ch, ok := s.loader.Channel(id)
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("channel %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, ch.Playback())
}

// handleEvents streams per-collection update tags over SSE so a guide
// page can re-render incrementally without polling.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("streaming not supported"))
		return
	}

	updates := make(chan catalog.Collection, 8)
	remove := s.loader.OnUpdate(func(col catalog.Collection) {
		select {
		case updates <- col:
		default: // slow client, drop; it re-reads on the next event
		}
	})
	defer remove()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case col := <-updates:
			fmt.Fprintf(w, "event: update\ndata: %s\n\n", col)
			flusher.Flush()
		}
	}
}

// --- admin gate handlers ---

type loginRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if req.Identity == "" || req.Secret == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("identity and secret are required"))
		return
	}

	err := s.gate.Login(r.Context(), req.Identity, req.Secret)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "identity": req.Identity})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeErr(w, http.StatusUnauthorized, err)
	case errors.Is(err, auth.ErrNotConfigured):
		writeErr(w, http.StatusServiceUnavailable, err)
	default:
		writeErr(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.Logout(r.Context()); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeNoContent(w)
}

// requireAdmin rejects requests until an admin login is in effect.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.gate.Authenticated(r.Context()) {
			writeErr(w, http.StatusUnauthorized, fmt.Errorf("admin login required"))
			return
		}
		next(w, r)
	}
}

// --- admin section handlers ---

func (s *Server) handleCreateSection(w http.ResponseWriter, r *http.Request) {
	var sec models.Section
	if err := json.NewDecoder(r.Body).Decode(&sec); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if sec.Name == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}
	id, err := s.loader.CreateSection(r.Context(), sec)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type updateSectionRequest struct {
	Name        *string `json:"name"`
	Order       *int    `json:"order"`
	IsActive    *bool   `json:"isActive"`
	Description *string `json:"description"`
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	err := s.loader.UpdateSection(r.Context(), id, store.SectionUpdate{
		Name:        req.Name,
		Order:       req.Order,
		IsActive:    req.IsActive,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("section %s not found", id))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.loader.DeleteSection(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("section %s not found", id))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeNoContent(w)
}

// --- admin channel handlers ---

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var ch models.Channel
	if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if ch.Name == "" || ch.SectionID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("name and sectionId are required"))
		return
	}
	id, err := s.loader.CreateChannel(r.Context(), ch)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type updateChannelRequest struct {
	Name        *string `json:"name"`
	Image       *string `json:"image"`
	URL         *string `json:"url"`
	AppURL      *string `json:"appUrl"`
	DownloadURL *string `json:"downloadUrl"`
	Order       *int    `json:"order"`
	SectionID   *string `json:"sectionId"`
}

func (s *Server) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	err := s.loader.UpdateChannel(r.Context(), id, store.ChannelUpdate{
		Name:        req.Name,
		Image:       req.Image,
		URL:         req.URL,
		AppURL:      req.AppURL,
		DownloadURL: req.DownloadURL,
		Order:       req.Order,
		SectionID:   req.SectionID,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("channel %s not found", id))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.loader.DeleteChannel(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("channel %s not found", id))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeNoContent(w)
}

// --- sync and import ---

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.loader.Sync(r.Context()); err != nil {
		if errors.Is(err, cache.ErrLocked) {
			writeErr(w, http.StatusConflict, fmt.Errorf("a sync is already running"))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"synced": true})
}

type importRequest struct {
	URL     string `json:"url"`
	Section string `json:"section"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if req.URL == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("url is required"))
		return
	}
	if u, err := url.ParseRequestURI(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("url must be a valid http or https URL"))
		return
	}

	// With Redis available, large playlists run on the background worker
	// instead of holding the request open.
	if s.queue != nil {
		if err := cache.EnqueueImport(r.Context(), s.queue, cache.ImportJob{URL: req.URL, Section: req.Section}); err != nil {
			writeErr(w, http.StatusInternalServerError, fmt.Errorf("enqueue: %w", err))
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
		return
	}

	sections, channels, err := service.Import(r.Context(), s.loader, req.URL, req.Section, s.cfg.UserAgent, s.cfg.Timeout)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("import: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sections_created":  sections,
		"channels_imported": channels,
	})
}
