package main

import (
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/sshcheck/internal/config"
	"github.com/hamed0406/sshcheck/internal/httpapi"
	"github.com/hamed0406/sshcheck/internal/logging"
	"github.com/hamed0406/sshcheck/internal/probe"
	"github.com/hamed0406/sshcheck/internal/repo/memory"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, zapcore.InfoLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	store := memory.New() // batches live for the process lifetime only
	api := httpapi.NewServer(logger, store, probe.NewSSHProber(), cfg)

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
	)
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
