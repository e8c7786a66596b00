// Package loader reads host lists from CSV and TXT files. CSV files are
// expected to carry a header row; the host column is auto-detected among the
// usual names and falls back to the first column.
package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Host is one target entry from an input file.
type Host struct {
	Host        string
	Description string
}

var (
	hostColumns = []string{"server", "hostname", "fqdn", "host", "ip", "address"}
	descColumns = []string{"description", "desc", "comment"}
)

// FromFile loads hosts from path, dispatching on the file extension.
// Non-UTF-8 content is retried as GBK before parsing.
func FromFile(path string) ([]Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		if decoded, _, derr := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data); derr == nil {
			data = decoded
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return FromCSV(bytes.NewReader(data))
	case ".txt":
		return FromTXT(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported file format %q: want .csv or .txt", ext)
	}
}

// FromCSV parses a host list with a header row. If none of the known host
// column names appear in the header, the first column is used.
func FromCSV(r io.Reader) ([]Host, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	hostCol, descCol := detectColumns(records[0])

	var hosts []Host
	for _, rec := range records[1:] {
		if hostCol >= len(rec) {
			continue
		}
		h := strings.TrimSpace(rec[hostCol])
		if h == "" {
			continue
		}
		entry := Host{Host: h}
		if descCol >= 0 && descCol < len(rec) {
			entry.Description = strings.TrimSpace(rec[descCol])
		}
		hosts = append(hosts, entry)
	}
	return hosts, nil
}

// FromTXT parses one host per line; blank lines are skipped.
func FromTXT(r io.Reader) ([]Host, error) {
	var hosts []Host
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		hosts = append(hosts, Host{Host: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read host list: %w", err)
	}
	return hosts, nil
}

func detectColumns(header []string) (hostCol, descCol int) {
	hostCol, descCol = 0, -1
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, want := range hostColumns {
			if name == want {
				hostCol = i
			}
		}
		for _, want := range descColumns {
			if name == want {
				descCol = i
			}
		}
	}
	return hostCol, descCol
}
