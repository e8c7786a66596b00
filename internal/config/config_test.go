package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"API_ADDR", "LOG_DIR", "ADMIN_API_KEYS", "PUBLIC_API_KEYS", "ALLOWED_ORIGINS", "MAX_CONCURRENCY", "SSH_PORT", "SSH_TIMEOUT_SECONDS", "RATE_PER_MIN"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.Addr != "127.0.0.1:8080" || cfg.LogDir != "logs" {
		t.Fatalf("bad defaults: %+v", cfg)
	}
	if cfg.MaxConcurrency != 10 || cfg.DefaultPort != 22 || cfg.DefaultTimeout != 10*time.Second {
		t.Fatalf("bad probe defaults: %+v", cfg)
	}
}

func TestFromEnv_OverridesAndClamp(t *testing.T) {
	t.Setenv("API_ADDR", ":9090")
	t.Setenv("ADMIN_API_KEYS", "adm1, adm2")
	t.Setenv("PUBLIC_API_KEYS", "pub1")
	t.Setenv("MAX_CONCURRENCY", "50")
	t.Setenv("SSH_PORT", "2222")
	t.Setenv("SSH_TIMEOUT_SECONDS", "3")

	cfg := FromEnv()
	if cfg.Addr != ":9090" {
		t.Fatalf("addr not overridden: %q", cfg.Addr)
	}
	if len(cfg.AdminKeys) != 2 || cfg.AdminKeys[1] != "adm2" {
		t.Fatalf("admin keys not parsed: %+v", cfg.AdminKeys)
	}
	if cfg.MaxConcurrency != HardConcurrencyCap {
		t.Fatalf("concurrency must clamp to %d, got %d", HardConcurrencyCap, cfg.MaxConcurrency)
	}
	if cfg.DefaultPort != 2222 || cfg.DefaultTimeout != 3*time.Second {
		t.Fatalf("ssh defaults not applied: %+v", cfg)
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	t.Setenv("API_ADDR", "127.0.0.1:8080")
	t.Setenv("MAX_CONCURRENCY", "")

	path := filepath.Join(t.TempDir(), "sshcheck.yaml")
	content := "addr: \":7070\"\nmax_concurrency: 4\ndefault_timeout_seconds: 5\nadmin_api_keys:\n  - filekey\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.MaxConcurrency != 4 || cfg.DefaultTimeout != 5*time.Second {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if len(cfg.AdminKeys) != 1 || cfg.AdminKeys[0] != "filekey" {
		t.Fatalf("admin keys not overlaid: %+v", cfg.AdminKeys)
	}
	// untouched fields keep env/default values
	if cfg.DefaultPort != 22 {
		t.Fatalf("default port lost: %+v", cfg)
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.DefaultPort != 22 {
		t.Fatalf("fallback config wrong: %+v", cfg)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("want parse error")
	}
}
