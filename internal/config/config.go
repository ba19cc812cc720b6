package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio    = "stdio"
	ModePipeline = "pipeline"

	// Store backend constants
	StoreJSON   = "json"
	StoreSQLite = "sqlite"

	// Default values
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultLookupDelay  = 2 * time.Second
	DefaultRegistryFile = "standards_registry.json"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the standard checker
type Config struct {
	// Run mode: "stdio" serves MCP tools, "pipeline" runs a one-shot
	// extract/lookup/export pass
	Mode string

	// Extraction input: a single PDF or a directory of PDFs
	PDFPath      string
	PDFDirectory string

	// Registry configuration
	RegistryPath string
	StoreBackend string // "json" or "sqlite"

	// Pipeline options
	ExportPath    string
	PortalLookup  bool
	PortalBaseURL string
	LookupDelay   time.Duration

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:          ModeStdio, // Default to stdio mode for MCP compatibility
		PDFDirectory:  currentDir,
		RegistryPath:  filepath.Join(currentDir, DefaultRegistryFile),
		StoreBackend:  StoreJSON,
		PortalBaseURL: "https://portal.etsi.org",
		LookupDelay:   DefaultLookupDelay,
		Version:       "1.0.0",
		ServerName:    "standard-checker",
		LogLevel:      DefaultLogLevel,
		MaxFileSize:   DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}
	if cfg.RegistryPath != "" {
		if expandedPath, err := filepath.Abs(cfg.RegistryPath); err == nil {
			cfg.RegistryPath = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("STANDARD_CHECKER")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("pdf", cfg.PDFPath)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("registry", cfg.RegistryPath)
	viper.SetDefault("store", cfg.StoreBackend)
	viper.SetDefault("export", cfg.ExportPath)
	viper.SetDefault("lookup", cfg.PortalLookup)
	viper.SetDefault("portalurl", cfg.PortalBaseURL)
	viper.SetDefault("lookupdelay", cfg.LookupDelay)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'stdio' for the MCP server, 'pipeline' for one-shot extraction")
	pflag.String("pdf", cfg.PDFPath, "PDF file to extract (pipeline mode)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("registry", cfg.RegistryPath, "Registry store path")
	pflag.String("store", cfg.StoreBackend, "Registry store backend: 'json' or 'sqlite'")
	pflag.String("export", cfg.ExportPath, "Export path (.csv, .json, .yaml, .xlsx); empty disables export")
	pflag.Bool("lookup", cfg.PortalLookup, "Look up extracted standards on the ETSI portal (pipeline mode)")
	pflag.String("portalurl", cfg.PortalBaseURL, "ETSI portal base URL")
	pflag.Duration("lookupdelay", cfg.LookupDelay, "Delay between portal lookups")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("pdf", pflag.Lookup("pdf"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("registry", pflag.Lookup("registry"))
	_ = viper.BindPFlag("store", pflag.Lookup("store"))
	_ = viper.BindPFlag("export", pflag.Lookup("export"))
	_ = viper.BindPFlag("lookup", pflag.Lookup("lookup"))
	_ = viper.BindPFlag("portalurl", pflag.Lookup("portalurl"))
	_ = viper.BindPFlag("lookupdelay", pflag.Lookup("lookupdelay"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nStandard Checker - extracts and tracks standards references from accreditation PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio MCP mode (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=pipeline --pdf=scope.pdf          # extract one document\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=pipeline --pdf=scope.pdf --lookup --export=out.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  STANDARD_CHECKER_MODE        Run mode\n")
		fmt.Fprintf(os.Stderr, "  STANDARD_CHECKER_PDF         PDF file to extract\n")
		fmt.Fprintf(os.Stderr, "  STANDARD_CHECKER_DIR         PDF directory\n")
		fmt.Fprintf(os.Stderr, "  STANDARD_CHECKER_REGISTRY    Registry store path\n")
		fmt.Fprintf(os.Stderr, "  STANDARD_CHECKER_STORE       Registry store backend\n")
		fmt.Fprintf(os.Stderr, "  STANDARD_CHECKER_EXPORT      Export path\n")
		fmt.Fprintf(os.Stderr, "  STANDARD_CHECKER_LOOKUP      Portal lookup toggle\n")
		fmt.Fprintf(os.Stderr, "  STANDARD_CHECKER_PORTALURL   Portal base URL\n")
		fmt.Fprintf(os.Stderr, "  STANDARD_CHECKER_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  STANDARD_CHECKER_MAXFILESIZE Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.PDFPath = viper.GetString("pdf")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.RegistryPath = viper.GetString("registry")
	cfg.StoreBackend = viper.GetString("store")
	cfg.ExportPath = viper.GetString("export")
	cfg.PortalLookup = viper.GetBool("lookup")
	cfg.PortalBaseURL = viper.GetString("portalurl")
	cfg.LookupDelay = viper.GetDuration("lookupdelay")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModePipeline {
		return errors.New("mode must be either 'stdio' or 'pipeline'")
	}

	// Validate store backend
	if c.StoreBackend != StoreJSON && c.StoreBackend != StoreSQLite {
		return errors.New("store must be either 'json' or 'sqlite'")
	}

	// Pipeline mode needs an input document
	if c.Mode == ModePipeline && c.PDFPath == "" {
		return errors.New("pipeline mode requires --pdf")
	}

	// Validate registry path
	if c.RegistryPath == "" {
		return errors.New("registry path cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if c.PDFDirectory != "" {
		if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
			if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
		}
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate lookup delay
	if c.LookupDelay < 0 {
		return errors.New("lookup delay cannot be negative")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, PDFPath: %s, RegistryPath: %s, StoreBackend: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.PDFPath, c.RegistryPath, c.StoreBackend, c.LogLevel, c.MaxFileSize)
}

// IsPipelineMode returns true if the checker runs a one-shot extraction pass
func (c *Config) IsPipelineMode() bool {
	return c.Mode == ModePipeline
}

// IsStdioMode returns true if the checker serves MCP tools over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
