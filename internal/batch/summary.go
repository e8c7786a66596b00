package batch

import "github.com/hamed0406/sshcheck/internal/domain"

// Summary rolls a result set up into per-status counts and percentages.
type Summary struct {
	Total      int     `json:"total"`
	Connected  int     `json:"connected"`
	Failed     int     `json:"failed"`
	Timeout    int     `json:"timeout"`
	Error      int     `json:"error"`
	ConnectedP float64 `json:"connected_pct"`
	FailedP    float64 `json:"failed_pct"`
	TimeoutP   float64 `json:"timeout_pct"`
	ErrorP     float64 `json:"error_pct"`
}

// Summarize is pure and defined for the empty slice (all zeroes).
func Summarize(results []domain.ProbeResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case domain.StatusConnected:
			s.Connected++
		case domain.StatusFailed:
			s.Failed++
		case domain.StatusTimeout:
			s.Timeout++
		default:
			s.Error++
		}
	}
	if s.Total > 0 {
		n := float64(s.Total)
		s.ConnectedP = float64(s.Connected) / n * 100
		s.FailedP = float64(s.Failed) / n * 100
		s.TimeoutP = float64(s.Timeout) / n * 100
		s.ErrorP = float64(s.Error) / n * 100
	}
	return s
}
