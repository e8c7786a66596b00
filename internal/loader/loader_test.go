package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFromFile_CSVWithStandardColumns(t *testing.T) {
	path := writeFile(t, "hosts.csv", strings.Join([]string{
		"server,description",
		"web1.example.com,Web Server 1",
		"db1.example.com,Database Server",
		"192.168.1.10,File Server",
	}, "\n"))

	hosts, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if len(hosts) != 3 {
		t.Fatalf("want 3 hosts, got %d", len(hosts))
	}
	if hosts[0].Host != "web1.example.com" || hosts[0].Description != "Web Server 1" {
		t.Fatalf("unexpected first entry: %+v", hosts[0])
	}
	if hosts[2].Host != "192.168.1.10" {
		t.Fatalf("unexpected third entry: %+v", hosts[2])
	}
}

func TestFromFile_CSVFallsBackToFirstColumn(t *testing.T) {
	path := writeFile(t, "hosts.csv", strings.Join([]string{
		"machine,owner",
		"a.example.com,alice",
		"b.example.com,bob",
	}, "\n"))

	hosts, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if len(hosts) != 2 || hosts[0].Host != "a.example.com" {
		t.Fatalf("first-column fallback broken: %+v", hosts)
	}
}

func TestFromFile_CSVSkipsBlankHosts(t *testing.T) {
	path := writeFile(t, "hosts.csv", strings.Join([]string{
		"host",
		"one.example.com",
		"   ",
		"",
		"two.example.com",
	}, "\n"))

	hosts, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("want blanks skipped, got %+v", hosts)
	}
}

func TestFromFile_TXT(t *testing.T) {
	path := writeFile(t, "hosts.txt", "web1.example.com\n\n  db1.example.com  \n192.168.1.10\n")

	hosts, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if len(hosts) != 3 || hosts[1].Host != "db1.example.com" {
		t.Fatalf("unexpected txt parse: %+v", hosts)
	}
}

func TestFromFile_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "hosts.xlsx", "whatever")
	if _, err := FromFile(path); err == nil {
		t.Fatal("want error for unsupported extension")
	}
}

func TestFromFile_GBKContent(t *testing.T) {
	// "测试" encoded as GBK bytes in the description column.
	content := append([]byte("host,description\nweb1.example.com,"), 0xB2, 0xE2, 0xCA, 0xD4, '\n')
	path := filepath.Join(t.TempDir(), "hosts.csv")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	hosts, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if len(hosts) != 1 || hosts[0].Host != "web1.example.com" {
		t.Fatalf("unexpected parse: %+v", hosts)
	}
	if hosts[0].Description != "测试" {
		t.Fatalf("GBK description not decoded: %q", hosts[0].Description)
	}
}
