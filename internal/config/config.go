package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort          = 8080
	DefaultHost          = "127.0.0.1"
	DefaultLogLevel      = "info"
	DefaultMaxFileSize   = 100 * 1024 * 1024 // 100MB
	DefaultRasterDPI     = 200
	MinRasterDPI         = 150
	DefaultOCRTimeout    = 60 * time.Second
	DefaultCacheCapacity = 8

	// EnvPrefix prefixes every environment variable, e.g. MCP_DOCV_RASTER_PATH
	EnvPrefix = "MCP_DOCV"
	// ConfigName is the config file looked up when --config is not given
	ConfigName = "doc-verifier"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// DefaultOCRLanguages are the Tesseract trained-data languages used by default
var DefaultOCRLanguages = []string{"ind", "eng"}

// Config holds all configuration for the document verifier
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	Directory   string // documents must live under this directory
	MaxFileSize int64  // Maximum PDF file size in bytes
	TempDir     string // scratch space for rendered pages; empty uses the system default

	// Pipeline configuration
	RasterPath    string // pdftoppm binary; empty looks it up on PATH
	RasterDPI     int
	OCRLanguages  []string
	OCRTimeout    time.Duration
	ChecklistFile string // overrides the built-in checklist template
	LabelsFile    string // overrides the built-in evidence label table
	CacheCapacity int

	// Application configuration
	ConfigFile string // file the values were read from, if any
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:          ModeStdio, // Default to stdio mode for MCP compatibility
		Host:          DefaultHost,
		Port:          DefaultPort,
		Directory:     currentDir,
		MaxFileSize:   DefaultMaxFileSize,
		RasterDPI:     DefaultRasterDPI,
		OCRLanguages:  append([]string(nil), DefaultOCRLanguages...),
		OCRTimeout:    DefaultOCRTimeout,
		CacheCapacity: DefaultCacheCapacity,
		Version:       "1.0.0",
		ServerName:    "mcp-doc-verifier",
		LogLevel:      DefaultLogLevel,
	}
}

// RegisterFlags defines every configuration flag on fs
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("config", "", "Config file (default: ./doc-verifier.yaml or $HOME/.config/doc-verifier/doc-verifier.yaml)")
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.Directory, "Directory containing PDF documents")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.String("tempdir", cfg.TempDir, "Directory for temporary page renders")
	fs.String("raster-path", cfg.RasterPath, "Path to the pdftoppm binary (default: look up on PATH)")
	fs.Int("raster-dpi", cfg.RasterDPI, "Page render resolution in DPI (minimum 150)")
	fs.StringSlice("ocr-languages", cfg.OCRLanguages, "Tesseract languages, e.g. ind,eng")
	fs.Duration("ocr-timeout", cfg.OCRTimeout, "Maximum time for a single page OCR call")
	fs.String("checklist", cfg.ChecklistFile, "Checklist template YAML (default: built-in)")
	fs.String("labels", cfg.LabelsFile, "Evidence label table YAML (default: built-in)")
	fs.Int("cache-capacity", cfg.CacheCapacity, "Number of analyzed documents kept in memory")
}

// flagKeys maps viper keys to flag names
var flagKeys = map[string]string{
	"mode":           "mode",
	"host":           "host",
	"port":           "port",
	"dir":            "dir",
	"loglevel":       "loglevel",
	"maxfilesize":    "maxfilesize",
	"tempdir":        "tempdir",
	"raster.path":    "raster-path",
	"raster.dpi":     "raster-dpi",
	"ocr.languages":  "ocr-languages",
	"ocr.timeout":    "ocr-timeout",
	"checklist.file": "checklist",
	"labels.file":    "labels",
	"cache.capacity": "cache-capacity",
}

// LoadFromFlags parses the process command line and returns a configuration
func LoadFromFlags() (*Config, error) {
	fs := pflag.CommandLine
	RegisterFlags(fs, DefaultConfig())
	setupUsageMessage(fs)

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	return FromFlagSet(fs)
}

// FromFlagSet resolves a configuration from parsed flags, environment
// variables, an optional config file and defaults, in that precedence order.
func FromFlagSet(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	for key, name := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	configFile := ""
	if f := fs.Lookup("config"); f != nil {
		configFile = f.Value.String()
	}
	used, err := readConfigFile(v, configFile)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFile = used

	populateConfigFromViper(v, cfg)

	// Expand paths if needed
	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// newViper configures a viper instance with environment variables and defaults
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.Directory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("tempdir", cfg.TempDir)
	v.SetDefault("raster.path", cfg.RasterPath)
	v.SetDefault("raster.dpi", cfg.RasterDPI)
	v.SetDefault("ocr.languages", cfg.OCRLanguages)
	v.SetDefault("ocr.timeout", cfg.OCRTimeout)
	v.SetDefault("checklist.file", cfg.ChecklistFile)
	v.SetDefault("labels.file", cfg.LabelsFile)
	v.SetDefault("cache.capacity", cfg.CacheCapacity)
	return v
}

// readConfigFile loads an explicit config file, or the first doc-verifier.yaml
// found in the working directory or the user config directory. A missing
// default file is not an error.
func readConfigFile(v *viper.Viper, path string) (string, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return v.ConfigFileUsed(), nil
	}

	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Doc Verifier - checks acceptance-test (uji terima) PDF documents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                   # stdio mode, current directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/srv/baut                   # stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=8081         # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --raster-path=/opt/poppler/pdftoppm --ocr-timeout=2m\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_MODE, %s_DIR, %s_LOGLEVEL, %s_RASTER_PATH, %s_OCR_LANGUAGES, ...\n",
			EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix)
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
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.Directory = v.GetString("dir")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.TempDir = v.GetString("tempdir")
	cfg.RasterPath = v.GetString("raster.path")
	cfg.RasterDPI = v.GetInt("raster.dpi")
	cfg.OCRLanguages = splitLanguages(v.GetStringSlice("ocr.languages"))
	cfg.OCRTimeout = v.GetDuration("ocr.timeout")
	cfg.ChecklistFile = v.GetString("checklist.file")
	cfg.LabelsFile = v.GetString("labels.file")
	cfg.CacheCapacity = v.GetInt("cache.capacity")
}

// splitLanguages accepts "ind,eng", "ind+eng" or separate entries
func splitLanguages(values []string) []string {
	var out []string
	for _, v := range values {
		for _, lang := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '+' || r == ' ' }) {
			out = append(out, lang)
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.Directory == "" {
		return errors.New("document directory cannot be empty")
	}

	// Check if the document directory exists, create if it doesn't
	if _, err := os.Stat(c.Directory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.Directory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create document directory %s: %w", c.Directory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access document directory %s: %w", c.Directory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.RasterDPI < MinRasterDPI {
		return fmt.Errorf("raster DPI must be at least %d, got %d", MinRasterDPI, c.RasterDPI)
	}

	if len(c.OCRLanguages) == 0 {
		return errors.New("at least one OCR language is required")
	}

	if c.OCRTimeout <= 0 {
		return errors.New("OCR timeout must be positive")
	}

	if c.CacheCapacity <= 0 {
		return errors.New("cache capacity must be positive")
	}

	for name, path := range map[string]string{"checklist": c.ChecklistFile, "labels": c.LabelsFile} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cannot access %s file %s: %w", name, path, err)
		}
	}

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

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// Debugf logs through the standard logger when debug logging is enabled
func (c *Config) Debugf(format string, args ...interface{}) {
	if c.IsDebug() {
		log.Printf(format, args...)
	}
}

// Logger returns the standard logger in debug mode and a discarding logger otherwise
func (c *Config) Logger() *log.Logger {
	if c.IsDebug() {
		return log.Default()
	}
	return log.New(io.Discard, "", 0)
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Directory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"RasterPath: %q, RasterDPI: %d, OCRLanguages: %s, OCRTimeout: %s, CacheCapacity: %d}",
		c.Mode, c.Host, c.Port, c.Directory, c.LogLevel, c.MaxFileSize,
		c.RasterPath, c.RasterDPI, strings.Join(c.OCRLanguages, "+"), c.OCRTimeout, c.CacheCapacity)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
