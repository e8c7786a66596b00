package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/sshcheck/internal/batch"
	"github.com/hamed0406/sshcheck/internal/config"
	"github.com/hamed0406/sshcheck/internal/domain"
	apimw "github.com/hamed0406/sshcheck/internal/httpapi/middleware"
	"github.com/hamed0406/sshcheck/internal/probe"
	"github.com/hamed0406/sshcheck/internal/repo"
)

// Server exposes batch probing over HTTP: launch a batch, list stored runs,
// or stream progress over a websocket.
type Server struct {
	Logger *zap.Logger
	Store  repo.BatchStore
	Prober probe.Prober
	Cfg    config.Config
}

func NewServer(l *zap.Logger, store repo.BatchStore, prober probe.Prober, cfg config.Config) *Server {
	return &Server{Logger: l, Store: store, Prober: prober, Cfg: cfg}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	if len(s.Cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.Cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
		}))
	} else {
		r.Use(cors.AllowAll().Handler)
	}
	r.Use(apimw.RateLimit(s.Cfg.RatePerMin, s.Cfg.RateBurst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	keys := apimw.Keys{Public: s.Cfg.PublicKeys, Admin: s.Cfg.AdminKeys}

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Get("/api/batches", s.handleListBatches)
		r.Get("/api/batches/{id}", s.handleGetBatch)
	})

	// Launching probes is intrusive; keep it behind the admin tier.
	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Post("/api/batches", s.handleRunBatch)
		r.Get("/api/batches/stream", s.handleStreamBatch)
	})

	return r
}

// runPayload carries the shared SSH parameters plus the host list for one
// batch. Zero values fall back to the server's configured defaults.
type runPayload struct {
	Hosts          []string `json:"hosts"`
	Username       string   `json:"username,omitempty"`
	Password       string   `json:"password,omitempty"`
	Port           int      `json:"port,omitempty"`
	TimeoutSeconds float64  `json:"timeout_seconds,omitempty"`
	Concurrency    int      `json:"concurrency,omitempty"`
}

func (s *Server) buildRequests(p runPayload) []domain.ProbeRequest {
	port := p.Port
	if port == 0 {
		port = s.Cfg.DefaultPort
	}
	timeout := p.TimeoutSeconds
	if timeout == 0 {
		timeout = s.Cfg.DefaultTimeout.Seconds()
	}

	reqs := make([]domain.ProbeRequest, 0, len(p.Hosts))
	for _, h := range p.Hosts {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		reqs = append(reqs, domain.ProbeRequest{
			Host:           h,
			Port:           port,
			Username:       p.Username,
			Password:       p.Password,
			TimeoutSeconds: timeout,
		})
	}
	return reqs
}

func (s *Server) concurrency(requested int) int {
	c := requested
	if c < 1 || c > s.Cfg.MaxConcurrency {
		c = s.Cfg.MaxConcurrency
	}
	return c
}

func (s *Server) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	var p runPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	reqs := s.buildRequests(p)
	if len(reqs) == 0 {
		http.Error(w, "hosts required", http.StatusBadRequest)
		return
	}

	rec, err := s.Store.Create(r.Context(), len(reqs))
	if err != nil {
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}

	runner := batch.NewRunner(s.Logger, s.Prober, s.concurrency(p.Concurrency))
	results, err := runner.Run(r.Context(), reqs, func(completed, total int, res domain.ProbeResult) {
		if aerr := s.Store.Append(r.Context(), rec.ID, res); aerr != nil {
			s.Logger.Warn("batch_append_error", zap.String("batch_id", rec.ID), zap.Error(aerr))
		}
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Store.Complete(r.Context(), rec.ID); err != nil {
		s.Logger.Warn("batch_complete_error", zap.String("batch_id", rec.ID), zap.Error(err))
	}

	summary := batch.Summarize(results)
	s.Logger.Info("batch_finished",
		zap.String("batch_id", rec.ID),
		zap.Int("total", summary.Total),
		zap.Int("connected", summary.Connected),
		zap.Int("failed", summary.Failed),
		zap.Int("timeout", summary.Timeout),
		zap.Int("error", summary.Error),
	)

	writeJSON(w, map[string]any{
		"batch_id": rec.ID,
		"results":  results,
		"summary":  summary,
	})
}

type batchRow struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Total     int           `json:"total"`
	Done      bool          `json:"done"`
	Summary   batch.Summary `json:"summary"`
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.Store.List(r.Context())
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	rows := make([]batchRow, 0, len(batches))
	for _, b := range batches {
		rows = append(rows, batchRow{
			ID:        b.ID,
			CreatedAt: b.CreatedAt,
			Total:     b.Total,
			Done:      b.Done,
			Summary:   batch.Summarize(b.Results),
		})
	}
	writeJSON(w, rows)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.Store.Get(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"batch":   b,
		"summary": batch.Summarize(b.Results),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
