package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/sshcheck/internal/domain"
)

func TestWriteAll(t *testing.T) {
	results := []domain.ProbeResult{
		{
			Host:           "web1.example.com",
			Port:           22,
			Status:         domain.StatusConnected,
			ResponseTimeMS: 12.5,
			Message:        "SSH-2.0-OpenSSH_9.6",
			Timestamp:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			Host:           "db1.example.com",
			Port:           2222,
			Status:         domain.StatusTimeout,
			ResponseTimeMS: 10004.2,
			Message:        "connection timeout after 10s",
			Timestamp:      time.Date(2026, 3, 2, 9, 0, 11, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := WriteAll(&buf, results); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header + 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "host,port,status,response_time_ms,message,timestamp" {
		t.Fatalf("bad header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "web1.example.com,22,Connected,12.50,") {
		t.Fatalf("bad first row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "Timeout") || !strings.Contains(lines[2], "2026-03-02T09:00:11Z") {
		t.Fatalf("bad second row: %q", lines[2])
	}
}

func TestWriteAll_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAll(&buf, nil); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "host,port,status,response_time_ms,message,timestamp" {
		t.Fatalf("empty export should be header only: %q", buf.String())
	}
}
