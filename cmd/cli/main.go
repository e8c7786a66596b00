package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/hamed0406/sshcheck/internal/batch"
	"github.com/hamed0406/sshcheck/internal/domain"
	"github.com/hamed0406/sshcheck/internal/export"
	"github.com/hamed0406/sshcheck/internal/loader"
	"github.com/hamed0406/sshcheck/internal/probe"
)

var (
	flagHosts       []string
	flagFile        string
	flagUser        string
	flagPassword    string
	flagAskPassword bool
	flagPort        int
	flagTimeout     float64
	flagConcurrency int
	flagOutput      string
	flagQuiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "sshcheck [flags] [host ...]",
	Short: "Probe SSH reachability and authentication for a batch of hosts",
	Long: `sshcheck dials every host on the given list, attempts the SSH handshake
(and password authentication when credentials are supplied) under a hard
concurrency cap, and reports per-host status, latency and an aggregate
summary.

Host keys are accepted without verification. That is fine for diagnosing
machines on a trusted network and unacceptable anywhere adversarial.`,
	Example: `  sshcheck web1.example.com db1.example.com
  sshcheck --file hosts.csv --user deploy --ask-password
  sshcheck --hosts 10.0.0.1,10.0.0.2 --port 2222 --timeout 5 -o results.csv`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringSliceVar(&flagHosts, "hosts", nil, "comma-separated hosts to probe")
	rootCmd.Flags().StringVarP(&flagFile, "file", "f", "", "host list file (.csv or .txt)")
	rootCmd.Flags().StringVarP(&flagUser, "user", "u", "", "SSH username (optional)")
	rootCmd.Flags().StringVar(&flagPassword, "password", "", "SSH password (prefer --ask-password)")
	rootCmd.Flags().BoolVar(&flagAskPassword, "ask-password", false, "prompt for the SSH password")
	rootCmd.Flags().IntVarP(&flagPort, "port", "p", domain.DefaultPort, "SSH port")
	rootCmd.Flags().Float64VarP(&flagTimeout, "timeout", "t", domain.DefaultTimeoutSeconds, "per-host timeout in seconds")
	rootCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "c", batch.DefaultConcurrency, "max concurrent probes (capped at 10)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write results to a CSV file")
	rootCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress progress output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	hosts, err := collectHosts(args)
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		return fmt.Errorf("no hosts to probe: use --hosts, --file, or positional arguments")
	}

	password := flagPassword
	if flagAskPassword {
		fmt.Fprint(os.Stderr, "SSH password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = string(b)
	}

	requests := make([]domain.ProbeRequest, 0, len(hosts))
	for _, h := range hosts {
		req := domain.ProbeRequest{
			Host:           h,
			Port:           flagPort,
			Username:       flagUser,
			Password:       password,
			TimeoutSeconds: flagTimeout,
		}
		req.Normalize()
		requests = append(requests, req)
	}

	concurrency := flagConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > batch.DefaultConcurrency {
		concurrency = batch.DefaultConcurrency
	}

	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stderr),
		zapcore.WarnLevel,
	))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := batch.NewRunner(logger, probe.NewSSHProber(), concurrency)
	results, err := runner.Run(ctx, requests, func(completed, total int, res domain.ProbeResult) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "[%d/%d] %s:%d %s (%.0f ms) %s\n",
			completed, total, res.Host, res.Port, res.Status, res.ResponseTimeMS, res.Message)
	})
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		fmt.Fprintf(os.Stderr, "interrupted: %d of %d probes completed\n", len(results), len(requests))
	}

	printSummary(results)

	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", flagOutput, err)
		}
		defer f.Close()
		if err := export.WriteAll(f, results); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		fmt.Fprintf(os.Stderr, "results written to %s\n", flagOutput)
	}
	return nil
}

// collectHosts merges positional arguments, --hosts entries and the --file
// list, preserving order. Duplicates are kept: each occurrence gets its own
// probe.
func collectHosts(args []string) ([]string, error) {
	var hosts []string
	add := func(h string) {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	for _, a := range args {
		add(a)
	}
	for _, h := range flagHosts {
		add(h)
	}
	if flagFile != "" {
		entries, err := loader.FromFile(flagFile)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			add(e.Host)
		}
	}
	return hosts, nil
}

func printSummary(results []domain.ProbeResult) {
	s := batch.Summarize(results)
	fmt.Printf("total:     %d\n", s.Total)
	fmt.Printf("connected: %d (%.1f%%)\n", s.Connected, s.ConnectedP)
	fmt.Printf("failed:    %d (%.1f%%)\n", s.Failed, s.FailedP)
	fmt.Printf("timeout:   %d (%.1f%%)\n", s.Timeout, s.TimeoutP)
	fmt.Printf("error:     %d (%.1f%%)\n", s.Error, s.ErrorP)
}
