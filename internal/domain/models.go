package domain

import "time"

// Status classifies the outcome of a single probe. The set is closed:
// anything the prober cannot place in the first three buckets lands in
// StatusError.
type Status string

const (
	// StatusConnected means TCP + SSH handshake (and auth, when credentials
	// were supplied) succeeded.
	StatusConnected Status = "Connected"
	// StatusFailed means the host answered at some layer but refused the
	// probe: TCP actively refused, DNS said no, or SSH/auth rejected us.
	StatusFailed Status = "Failed"
	// StatusTimeout means the deadline elapsed before any outcome.
	StatusTimeout Status = "Timeout"
	// StatusError covers everything else (unexpected disconnects, protocol
	// surprises, recovered panics).
	StatusError Status = "Error"
)

// ProbeResult is the immutable record of one host's outcome. Exactly one is
// produced per submitted ProbeRequest.
type ProbeResult struct {
	Host           string    `json:"host"`
	Port           int       `json:"port"`
	Status         Status    `json:"status"`
	ResponseTimeMS float64   `json:"response_time_ms"`
	Message        string    `json:"message,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
