package domain

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

const (
	DefaultPort           = 22
	DefaultTimeoutSeconds = 10
)

// ProbeRequest describes one SSH probe attempt. Username and Password are
// optional; with no password the probe only verifies that an SSH service
// answers, it does not authenticate.
type ProbeRequest struct {
	Host           string  `json:"host"`
	Port           int     `json:"port"`
	Username       string  `json:"username,omitempty"`
	Password       string  `json:"password,omitempty"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

// Normalize fills in the defaults for zero-valued fields.
func (r *ProbeRequest) Normalize() {
	if r.Port == 0 {
		r.Port = DefaultPort
	}
	if r.TimeoutSeconds == 0 {
		r.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

// Validate reports every problem with the request at once. It is meant to run
// at the submission boundary, before any probing starts.
func (r ProbeRequest) Validate() error {
	var err error
	if r.Host == "" {
		err = multierr.Append(err, errors.New("host is required"))
	}
	if r.Port < 1 || r.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("port %d out of range 1-65535", r.Port))
	}
	if r.TimeoutSeconds <= 0 {
		err = multierr.Append(err, fmt.Errorf("timeout %.2fs must be positive", r.TimeoutSeconds))
	}
	return err
}

// Timeout returns the per-attempt deadline as a duration.
func (r ProbeRequest) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds * float64(time.Second))
}

// HasCredentials reports whether the request carries a password to try.
func (r ProbeRequest) HasCredentials() bool {
	return r.Password != ""
}
