// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	apiAddr := strings.TrimSpace(os.Getenv("API_ADDR"))
	conc := strings.TrimSpace(os.Getenv("MAX_CONCURRENCY"))
	timeout := strings.TrimSpace(os.Getenv("SSH_TIMEOUT_SECONDS"))
	allowed := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS"))

	if admin == "" {
		fail("ADMIN_API_KEYS is empty (nobody will be able to launch batches).")
	}
	if pub == "" {
		fail("PUBLIC_API_KEYS is empty (read routes will 401).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if apiAddr == "" {
		warn("API_ADDR is empty; the loopback default will be used.")
	} else {
		ok("API_ADDR=" + apiAddr)
	}

	if conc != "" {
		if n, err := strconv.Atoi(conc); err != nil || n < 1 {
			fail("MAX_CONCURRENCY must be a positive integer, got " + conc)
		} else if n > 10 {
			warn("MAX_CONCURRENCY above 10 will be clamped to 10 at runtime.")
		} else {
			ok("MAX_CONCURRENCY=" + conc)
		}
	}

	if timeout != "" {
		if n, err := strconv.Atoi(timeout); err != nil || n < 1 {
			fail("SSH_TIMEOUT_SECONDS must be a positive integer, got " + timeout)
		} else {
			ok("SSH_TIMEOUT_SECONDS=" + timeout)
		}
	}

	if allowed == "" {
		warn("ALLOWED_ORIGINS empty: CORS is wide open; set explicit origins for production.")
	} else {
		ok("ALLOWED_ORIGINS=" + allowed)
	}

	ok("preflight passed")
}
