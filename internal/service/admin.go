package service

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/store"
)

// tokenTTL is how long a freshly issued bearer token stays valid.
const tokenTTL = 30 * 24 * time.Hour

// AdminServer is the chi-routed JSON facade over the store and scheduler:
// library/rule/job CRUD plus bearer-token auth, mirroring CineVault's
// api.Server at a fraction of its endpoint count — Sceneforged's full HTTP
// surface is out of scope, this exists as the package's own example/smoke
// handler set and the surface integration tests exercise directly.
type AdminServer struct {
	store *store.Store
	log   zerolog.Logger
	mux   chi.Router
}

func NewAdminServer(st *store.Store, log zerolog.Logger) *AdminServer {
	s := &AdminServer{store: st, log: log.With().Str("component", "service_admin").Logger()}
	s.routes()
	return s
}

func (s *AdminServer) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *AdminServer) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/api/v1/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/api/v1/libraries", s.handleListLibraries)
		r.Post("/api/v1/libraries", s.handleCreateLibrary)
		r.Get("/api/v1/libraries/{id}", s.handleGetLibrary)

		r.Get("/api/v1/rules", s.handleListRules)
		r.Post("/api/v1/rules", s.handleCreateRule)

		r.Post("/api/v1/jobs", s.handleSubmitJob)
		r.Get("/api/v1/jobs/{id}", s.handleGetJob)
		r.Post("/api/v1/jobs/{id}/cancel", s.handleCancelJob)
	})

	s.mux = r
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAuth validates the Bearer token against auth_tokens, attaching the
// resolved user id to the request context the way CineVault's authMiddleware
// attaches X-User-ID, but via r.Context() instead of a mutated header.
func (s *AdminServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		h := r.Header.Get("Authorization")
		if len(h) <= len(prefix) || h[:len(prefix)] != prefix {
			writeError(w, r, apperr.Unauthorized("missing bearer token"))
			return
		}
		user, err := s.store.Users.ValidateToken(h[len(prefix):])
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *AdminServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.Validation("body", "malformed json"))
		return
	}
	user, err := s.store.Users.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := s.store.Users.IssueToken(user.ID, tokenTTL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *AdminServer) handleListLibraries(w http.ResponseWriter, r *http.Request) {
	libs, err := s.store.Libraries.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, libs)
}

type createLibraryRequest struct {
	Name             string          `json:"name"`
	MediaType        store.MediaType `json:"media_type"`
	Paths            []string        `json:"paths"`
	ScanIntervalSecs int             `json:"scan_interval_secs"`
}

func (s *AdminServer) handleCreateLibrary(w http.ResponseWriter, r *http.Request) {
	var req createLibraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.Validation("body", "malformed json"))
		return
	}
	lib := &store.Library{Name: req.Name, MediaType: req.MediaType, Paths: req.Paths, ScanIntervalSecs: req.ScanIntervalSecs}
	if err := s.store.Libraries.Create(lib); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lib)
}

func (s *AdminServer) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, apperr.Validation("id", "not a uuid"))
		return
	}
	lib, err := s.store.Libraries.GetByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *AdminServer) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.Rules.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *AdminServer) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule store.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, r, apperr.Validation("body", "malformed json"))
		return
	}
	if err := s.store.Rules.Create(&rule); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

type submitJobRequest struct {
	FilePath   string `json:"file_path"`
	Priority   int    `json:"priority"`
	MaxRetries int    `json:"max_retries"`
}

func (s *AdminServer) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.Validation("body", "malformed json"))
		return
	}
	if req.MaxRetries <= 0 {
		req.MaxRetries = 3
	}
	job := &store.Job{FilePath: req.FilePath, Priority: req.Priority, MaxRetries: req.MaxRetries, Source: store.JobSourceAPI}
	existing, err := s.store.Jobs.Submit(job)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if existing {
		status = http.StatusOK
	}
	writeJSON(w, status, job)
}

func (s *AdminServer) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, apperr.Validation("id", "not a uuid"))
		return
	}
	job, err := s.store.Jobs.GetByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *AdminServer) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, apperr.Validation("id", "not a uuid"))
		return
	}
	if err := s.store.Jobs.Cancel(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
