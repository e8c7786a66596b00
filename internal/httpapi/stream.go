package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hamed0406/sshcheck/internal/batch"
	"github.com/hamed0406/sshcheck/internal/domain"
)

// streamFrame is the wire shape of every websocket message the server sends.
type streamFrame struct {
	Type      string               `json:"type"` // "progress" | "done" | "error"
	BatchID   string               `json:"batch_id,omitempty"`
	Completed int                  `json:"completed,omitempty"`
	Total     int                  `json:"total,omitempty"`
	Result    *domain.ProbeResult  `json:"result,omitempty"`
	Results   []domain.ProbeResult `json:"results,omitempty"`
	Summary   *batch.Summary       `json:"summary,omitempty"`
	Error     string               `json:"error,omitempty"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(s.Cfg.AllowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // non-browser client
			}
			for _, o := range s.Cfg.AllowedOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

// handleStreamBatch runs a batch and streams progress frames as probes
// complete. The client sends one runPayload JSON message, then receives one
// "progress" frame per result and a final "done" frame.
func (s *Server) handleStreamBatch(w http.ResponseWriter, r *http.Request) {
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("ws_upgrade_failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var p runPayload
	if err := conn.ReadJSON(&p); err != nil {
		_ = conn.WriteJSON(streamFrame{Type: "error", Error: "bad payload"})
		return
	}
	reqs := s.buildRequests(p)
	if len(reqs) == 0 {
		_ = conn.WriteJSON(streamFrame{Type: "error", Error: "hosts required"})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// A read error means the client went away; cancel the batch so queued
	// probes stop being admitted.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	rec, err := s.Store.Create(ctx, len(reqs))
	if err != nil {
		_ = conn.WriteJSON(streamFrame{Type: "error", Error: "store error"})
		return
	}

	runner := batch.NewRunner(s.Logger, s.Prober, s.concurrency(p.Concurrency))
	// Progress callbacks are serialized by the runner, so this is the only
	// writer until Run returns.
	results, err := runner.Run(ctx, reqs, func(completed, total int, res domain.ProbeResult) {
		if aerr := s.Store.Append(ctx, rec.ID, res); aerr != nil {
			s.Logger.Warn("batch_append_error", zap.String("batch_id", rec.ID), zap.Error(aerr))
		}
		_ = conn.WriteJSON(streamFrame{
			Type:      "progress",
			BatchID:   rec.ID,
			Completed: completed,
			Total:     total,
			Result:    &res,
		})
	})
	if err != nil {
		_ = conn.WriteJSON(streamFrame{Type: "error", BatchID: rec.ID, Error: err.Error()})
		return
	}
	if err := s.Store.Complete(context.WithoutCancel(ctx), rec.ID); err != nil {
		s.Logger.Warn("batch_complete_error", zap.String("batch_id", rec.ID), zap.Error(err))
	}

	summary := batch.Summarize(results)
	_ = conn.WriteJSON(streamFrame{
		Type:    "done",
		BatchID: rec.ID,
		Total:   len(reqs),
		Results: results,
		Summary: &summary,
	})
}
