// Package export serializes finished probe results, currently as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hamed0406/sshcheck/internal/domain"
)

// CSVWriter writes probe results as CSV rows.
type CSVWriter struct {
	w *csv.Writer
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"host", "port", "status", "response_time_ms", "message", "timestamp"})
}

func (c *CSVWriter) WriteResult(r domain.ProbeResult) error {
	return c.w.Write([]string{
		r.Host,
		strconv.Itoa(r.Port),
		string(r.Status),
		fmt.Sprintf("%.2f", r.ResponseTimeMS),
		r.Message,
		r.Timestamp.Format(time.RFC3339),
	})
}

func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// WriteAll writes a header plus one row per result.
func WriteAll(w io.Writer, results []domain.ProbeResult) error {
	cw := NewCSVWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.WriteResult(r); err != nil {
			return err
		}
	}
	return cw.Flush()
}
