package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/aluiziolira/ebook-search/config"
	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/notify"
	"github.com/aluiziolira/ebook-search/pipeline"
	"github.com/aluiziolira/ebook-search/scraper"
	"github.com/aluiziolira/ebook-search/server"
	"github.com/aluiziolira/ebook-search/storage"
	"github.com/aluiziolira/ebook-search/stores"
	"github.com/aluiziolira/ebook-search/useragent"
)

// CLI is the command tree of ebooksearch.
type CLI struct {
	Config  string `short:"c" help:"Path to a YAML config file (defaults to ./ebooksearch.yaml when present)" type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve  ServeCmd  `cmd:"" default:"1" help:"Run the HTTP API"`
	Search SearchCmd `cmd:"" help:"Search the bookstores once and export the books"`
	Stores StoresCmd `cmd:"" help:"List the configured bookstores"`
}

// ServeCmd runs the HTTP API until interrupted.
type ServeCmd struct {
	Listen string `short:"l" help:"Listen address, overrides the configuration"`
	Debug  bool   `help:"Return internal error messages to clients"`
}

// SearchCmd runs one aggregated search from the command line.
type SearchCmd struct {
	Query      string   `short:"q" required:"" help:"Keywords to search for"`
	Bookstores []string `short:"b" help:"Bookstore ids to search (default: every online bookstore)"`
	Output     string   `short:"o" help:"Output file path, overrides the configuration"`
	Format     string   `short:"f" help:"Output format: csv, json, or dual"`
}

// StoresCmd prints the bookstore registry.
type StoresCmd struct{}

// services are the collaborators shared by every command.
type services struct {
	metrics    *scraper.Metrics
	registry   *stores.Registry
	repo       *storage.Repository
	agents     *useragent.Parser
	aggregator *pipeline.Aggregator
}

func newServices(ctx context.Context, cfg *config.Config) (*services, error) {
	metrics := scraper.NewMetrics()
	fetcher := scraper.NewFetcher(cfg, metrics)
	registry := stores.NewRegistry(cfg, fetcher)

	agents, err := useragent.NewParser(cfg.UACacheSize)
	if err != nil {
		return nil, fmt.Errorf("user agent parser: %w", err)
	}

	svc := &services{metrics: metrics, registry: registry, agents: agents}

	// Searches still run without history when the database is unavailable.
	var recorder pipeline.Recorder
	if cfg.DatabaseURL != "" {
		repo, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("search history disabled", slog.Any("error", err))
		} else {
			svc.repo = repo
			recorder = repo
		}
	}

	svc.aggregator = pipeline.NewAggregator(registry, recorder, notify.New(cfg), metrics)
	return svc, nil
}

// Close waits for pending side effects before releasing the database.
func (s *services) Close() {
	s.aggregator.Wait()
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			slog.Error("close database", slog.Any("error", err))
		}
	}
}

func (s *services) searches() server.Getter {
	if s.repo == nil {
		return nil
	}
	return s.repo
}

// Run starts the HTTP server and shuts it down gracefully on SIGINT or
// SIGTERM.
func (c *ServeCmd) Run(cfg *config.Config) error {
	if c.Listen != "" {
		cfg.ListenAddr = c.Listen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	api := &server.Server{
		Aggregator: svc.aggregator,
		Searches:   svc.searches(),
		Agents:     svc.agents,
		Metrics:    svc.metrics,
		Responder:  &server.Responder{DebugMode: c.Debug},
	}
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("server listening",
		slog.String("addr", cfg.ListenAddr),
		slog.Int("bookstores", len(svc.registry.Available())),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, waiting for in-flight searches to finish")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Run searches once, exports the books and prints a summary.
func (c *SearchCmd) Run(cfg *config.Config) error {
	if c.Output != "" {
		cfg.OutputFile = c.Output
	}
	if c.Format != "" {
		cfg.OutputFormat = strings.ToLower(c.Format)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	startTime := time.Now()
	resp, err := svc.aggregator.Search(ctx, pipeline.Query{
		Keywords:   c.Query,
		Bookstores: c.Bookstores,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	stats, err := export(writer, resp.Search)
	if err != nil {
		return err
	}

	printSummary(os.Stdout, resp.Search, stats, time.Since(startTime), cfg.OutputFile)
	return nil
}

// Run prints the bookstore registry.
func (c *StoresCmd) Run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	printBookstores(os.Stdout, cfg.Bookstores)
	return nil
}

// export pushes the books of search through the validation pipeline.
func export(writer pipeline.OutputWriter, search *models.Search) (pipeline.Stats, error) {
	p := pipeline.NewPipeline(writer, 64)
	p.Start(2)

	if err := p.Process(pipeline.Rows(search)...); err != nil {
		_ = p.Close()
		return p.Stats(), fmt.Errorf("process books: %w", err)
	}
	if err := p.Close(); err != nil {
		return p.Stats(), fmt.Errorf("pipeline shutdown: %w", err)
	}

	stats := p.Stats()
	if stats.Processed > 0 {
		if err := writer.Validate(); err != nil {
			return stats, fmt.Errorf("output validation: %w", err)
		}
	}
	return stats, nil
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(w io.Writer, search *models.Search, stats pipeline.Stats, duration time.Duration, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintf(w, "Search complete: %s\n", search.Keywords)
	fmt.Fprintf(w, "  Search ID:     %s\n", search.ID)
	fmt.Fprintf(w, "  Total books:   %d\n", search.TotalQuantity)
	fmt.Fprintf(w, "  Exported:      %d\n", stats.Processed)
	fmt.Fprintf(w, "  Invalid:       %d\n", stats.Invalid)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, result := range search.Results {
		mark := "ok"
		switch {
		case result.Status == models.StatusOffline:
			mark = "offline"
		case !result.IsOkay:
			mark = "failed"
		}
		line := fmt.Sprintf("  %s\t%s\t%d\t%.0fms", result.Bookstore.DisplayName, mark, result.Quantity, result.ProcessTime)
		if result.Error != "" {
			line += "\t" + result.Error
		}
		fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Output file:   %s\n", outputFile)
	fmt.Fprintln(w, separator)
}

func printBookstores(w io.Writer, bookstores []models.Bookstore) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tONLINE\tWEBSITE")
	for _, store := range bookstores {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", store.ID, store.DisplayName, store.IsOnline, store.Website)
	}
	_ = tw.Flush()
}
