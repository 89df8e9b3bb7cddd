// Package main provides the CLI for running visibility tests without the
// HTTP server.
//
// Run with: go run ./cmd/cli test --industry saas --content docs/site.txt
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discoverly/visibility-service/internal/config"
	"github.com/discoverly/visibility-service/internal/fingerprint"
	"github.com/discoverly/visibility-service/internal/llm"
	"github.com/discoverly/visibility-service/internal/report"
	"github.com/discoverly/visibility-service/internal/service"
	"github.com/discoverly/visibility-service/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "visibility-cli",
		Short: "AI discoverability and competitive visibility testing",
	}

	root.AddCommand(testCmd())
	root.AddCommand(competitiveCmd())
	return root
}

func testCmd() *cobra.Command {
	var (
		industry     string
		contentFiles []string
		promptsFile  string
		out          string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run a discoverability test over content files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(industry, contentFiles, promptsFile, out)
		},
	}

	cmd.Flags().StringVar(&industry, "industry", "general", "Industry label for the report")
	cmd.Flags().StringSliceVar(&contentFiles, "content", nil, "Content file (repeatable); each file is one chunk")
	cmd.Flags().StringVar(&promptsFile, "prompts", "", "File with one prompt per line (generated when omitted)")
	cmd.Flags().StringVar(&out, "out", "", "Write the report JSON here instead of stdout")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func competitiveCmd() *cobra.Command {
	var (
		industry     string
		contentFiles []string
		promptsFile  string
		out          string
	)

	cmd := &cobra.Command{
		Use:   "competitive",
		Short: "Run a competitive visibility analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompetitive(industry, contentFiles, promptsFile, out)
		},
	}

	cmd.Flags().StringVar(&industry, "industry", "general", "Industry label")
	cmd.Flags().StringSliceVar(&contentFiles, "content", nil, "Content file (repeatable)")
	cmd.Flags().StringVar(&promptsFile, "prompts", "", "File with one prompt per line (templates used when omitted)")
	cmd.Flags().StringVar(&out, "out", "", "Write the result JSON here instead of stdout")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

// buildStack wires the shared pipeline pieces for both subcommands.
func buildStack(logger *zap.Logger) (*service.Orchestrator, *service.CompetitiveOrchestrator, service.Querier, func(), error) {
	configPath := os.Getenv("VIS_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}

	clients := llm.BuildClients(llm.Credentials{
		OpenAI:    cfg.Providers.OpenAI.APIKey,
		Anthropic: cfg.Providers.Anthropic.APIKey,
		Google:    cfg.Providers.Google.APIKey,
		Replicate: cfg.Providers.Replicate.APIKey,
		Together:  cfg.Providers.Together.APIKey,
	}, llm.PollConfig{
		Interval:    time.Duration(cfg.Testing.PollIntervalMs) * time.Millisecond,
		MaxAttempts: cfg.Testing.PollMaxAttempts,
	})

	router := llm.NewRouter(
		clients,
		cfg.Testing.Spacing(),
		cfg.Testing.Timeout(),
		llm.RetryConfig{
			MaxAttempts:     cfg.Testing.RetryMaxAttempts,
			InitialInterval: time.Duration(cfg.Testing.RetryInitialMs) * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		storage.NewCallRepository(db),
		logger,
	)

	pairs := cfg.Providers.EnabledPairs()
	extractor := fingerprint.NewExtractor(router, logger)
	orch := service.NewOrchestrator(router, pairs, cfg.Testing.WorkerLimit, logger)
	comp := service.NewCompetitiveOrchestrator(router, extractor, pairs, cfg.Testing.WorkerLimit, logger)

	return orch, comp, router, func() { db.Close() }, nil
}

func runTest(industry string, contentFiles []string, promptsFile, out string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	orch, _, querier, closeFn, err := buildStack(logger)
	if err != nil {
		return err
	}
	defer closeFn()

	content, err := readContent(contentFiles)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	prompts, err := readPrompts(promptsFile)
	if err != nil {
		return err
	}
	if len(prompts) == 0 {
		// No prompt file: ask the first configured provider to write the
		// question battery from the content itself.
		pairs := orch.Pairs()
		if len(pairs) == 0 {
			return service.ErrNoProviders
		}
		prompts = service.GeneratePrompts(ctx, querier, "cli-promptgen", pairs[0], industry, strings.Join(content, "\n\n"), 10)
		if len(prompts) == 0 {
			return fmt.Errorf("prompt generation produced no questions; supply --prompts")
		}
		logger.Info("generated prompts", zap.Int("count", len(prompts)))
	}

	rep, err := orch.RunDiscoverabilityTest(ctx, service.TestRequest{
		Industry: industry,
		Content:  content,
		Prompts:  prompts,
	})
	if err != nil {
		return err
	}

	return writeJSON(out, report.ToExport(*rep))
}

func runCompetitive(industry string, contentFiles []string, promptsFile, out string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	_, comp, _, closeFn, err := buildStack(logger)
	if err != nil {
		return err
	}
	defer closeFn()

	content, err := readContent(contentFiles)
	if err != nil {
		return err
	}
	prompts, err := readPrompts(promptsFile)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	analysis, err := comp.RunCompetitiveAnalysis(ctx, service.CompetitiveRequest{
		Industry: industry,
		Content:  content,
		Prompts:  prompts,
	})
	if err != nil {
		return err
	}

	return writeJSON(out, analysis)
}

// signalContext returns a context cancelled by Ctrl+C so in-flight
// provider calls stop instead of leaking.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func readContent(files []string) ([]string, error) {
	var chunks []string
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading content file %s: %w", f, err)
		}
		chunks = append(chunks, string(data))
	}
	return chunks, nil
}

func readPrompts(file string) ([]string, error) {
	if file == "" {
		return nil, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file %s: %w", file, err)
	}
	var prompts []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			prompts = append(prompts, line)
		}
	}
	return prompts, nil
}

func writeJSON(out string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	data = append(data, '\n')

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("report written to %s\n", out)
	return nil
}
