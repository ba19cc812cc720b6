package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Tarachineno/standard-checker/internal/config"
	"github.com/Tarachineno/standard-checker/internal/document"
	"github.com/Tarachineno/standard-checker/internal/export"
	"github.com/Tarachineno/standard-checker/internal/mcp"
	"github.com/Tarachineno/standard-checker/internal/portal"
	"github.com/Tarachineno/standard-checker/internal/registry"
	"github.com/Tarachineno/standard-checker/internal/standards"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the run mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// In stdio mode, redirect log output to stderr to avoid interfering with MCP protocol
		log.SetOutput(os.Stderr)
		// Reduce log verbosity in stdio mode unless debug is enabled
		if !cfg.IsDebug() {
			log.SetOutput(os.NewFile(0, os.DevNull))
		}
	} else {
		// In pipeline mode, use normal stdout logging with more detail
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// newStore selects the registry store backend from the configuration
func newStore(cfg *config.Config, logger *log.Logger) (registry.Store, error) {
	if cfg.StoreBackend == config.StoreSQLite {
		return registry.NewSQLiteStore(cfg.RegistryPath, logger)
	}
	return registry.NewJSONStore(cfg.RegistryPath, logger), nil
}

// runPipeline runs a one-shot extract/lookup/export pass over a single PDF
func runPipeline(ctx context.Context, cfg *config.Config, reader *document.Reader,
	extractor *standards.Extractor, reg *registry.Registry,
	portalClient *portal.Client, exporter *export.Exporter,
) error {
	doc, err := reader.Read(cfg.PDFPath)
	if err != nil {
		return err
	}

	records := extractor.Extract(doc)
	ids, err := reg.BulkAdd(records)
	if err != nil {
		return err
	}
	log.Printf("Extracted %d standard(s) from %s (registry size: %d)", len(records), cfg.PDFPath, reg.Len())

	if cfg.PortalLookup {
		numbers := make([]string, len(records))
		for i, rec := range records {
			numbers[i] = rec.Number
		}
		results := portalClient.BatchLookup(ctx, numbers)
		for i, info := range results {
			reg.ApplyUpdate(ids[i], registry.Update{RemoteInfo: info})
		}
		if err := reg.Save(); err != nil {
			return err
		}
		log.Printf("Portal lookup complete for %d standard(s)", len(results))
	}

	if cfg.ExportPath != "" {
		if err := exporter.Export(reg.All(), cfg.ExportPath); err != nil {
			return err
		}
		log.Printf("Exported registry to %s", cfg.ExportPath)
	}

	return nil
}

// runStdioMode handles stdio mode execution with signal handling
func runStdioMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) {
	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Start server in a goroutine
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-signalCh:
		if os.Getenv("DEBUG") != "" {
			log.Printf("Received signal: %s", sig)
		}
		cancel()

		if err := <-serverErrCh; err != nil {
			if os.Getenv("DEBUG") != "" {
				log.Printf("Server shutdown with error: %v", err)
			}
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			// Only log to stderr in debug mode to avoid protocol interference
			if os.Getenv("DEBUG") != "" {
				log.Printf("Server error: %v", err)
			}
			os.Exit(1)
		}
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging based on mode
	setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && cfg.IsPipelineMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	logger := log.Default()

	store, err := newStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open registry store: %v", err)
	}
	reg, err := registry.New(store, registry.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to load registry: %v", err)
	}

	reader := document.NewReader(cfg.MaxFileSize, document.WithLogger(logger))
	extractor := standards.NewExtractor(standards.WithLogger(logger))
	portalClient := portal.NewClient(
		portal.WithBaseURL(cfg.PortalBaseURL),
		portal.WithDelay(cfg.LookupDelay),
		portal.WithLogger(logger),
	)
	exporter := export.NewExporter(logger)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle different modes
	if cfg.IsPipelineMode() {
		if err := runPipeline(ctx, cfg, reader, extractor, reg, portalClient, exporter); err != nil {
			log.Fatalf("Pipeline failed: %v", err)
		}
		return
	}

	server, err := mcp.NewServer(cfg, reader, extractor, reg, portalClient, exporter)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	runStdioMode(ctx, cancel, server)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Standard Checker\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
