package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort               = 8080
	DefaultHost               = "127.0.0.1"
	DefaultLogLevel           = "info"
	DefaultMaxFileSize        = 100 * 1024 * 1024 // 100MB
	DefaultCacheCapacity      = 32
	DefaultMaxConcurrentOpens = 4

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "MCP_PDF_ACTIONS"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is given
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the PDF action inspector
type Config struct {
	// Server configuration
	Mode string `validate:"oneof=stdio server"`
	Host string `validate:"required_if=Mode server"`
	Port int

	// PDF configuration
	PDFDirectory       string `validate:"required"`
	MaxFileSize        int64  `validate:"gt=0"` // Maximum PDF file size in bytes
	CacheCapacity      int    `validate:"min=1,max=1024"`
	MaxConcurrentOpens int    `validate:"min=1,max=64"`
	WatchFiles         bool

	// Application configuration
	Version    string
	ServerName string `validate:"required"`
	LogLevel   string `validate:"oneof=debug info warn error"`
	EnvFile    string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:               ModeStdio,
		Host:               DefaultHost,
		Port:               DefaultPort,
		PDFDirectory:       currentDir,
		MaxFileSize:        DefaultMaxFileSize,
		CacheCapacity:      DefaultCacheCapacity,
		MaxConcurrentOpens: DefaultMaxConcurrentOpens,
		WatchFiles:         true,
		Version:            "1.0.0",
		ServerName:         "mcp-pdf-action-inspector",
		LogLevel:           DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags, the optional env file and the
// environment, and returns a validated configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if envFile := viper.GetString("env-file"); envFile != "" {
		// existing environment variables win over the file
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	populateConfigFromViper(cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setting describes one configuration key. The flag name doubles as the
// viper key; the environment variable is derived from it.
type setting struct {
	name  string
	usage string
	def   func(*Config) any
}

var settings = []setting{
	{"mode", "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP/SSE server",
		func(c *Config) any { return c.Mode }},
	{"host", "Server host address (server mode only)", func(c *Config) any { return c.Host }},
	{"port", "Server port (server mode only)", func(c *Config) any { return c.Port }},
	{"dir", "Directory containing PDF files; requests outside it are rejected",
		func(c *Config) any { return c.PDFDirectory }},
	{"log-level", "Log level (debug, info, warn, error)", func(c *Config) any { return c.LogLevel }},
	{"max-file-size", "Maximum PDF file size in bytes", func(c *Config) any { return c.MaxFileSize }},
	{"cache-capacity", "Maximum number of parsed documents kept open",
		func(c *Config) any { return c.CacheCapacity }},
	{"max-concurrent-opens", "Maximum number of documents inspected at once",
		func(c *Config) any { return c.MaxConcurrentOpens }},
	{"watch", "Evict cached documents when their files change on disk",
		func(c *Config) any { return c.WatchFiles }},
	{"env-file", "Optional .env file with MCP_PDF_ACTIONS_* variables",
		func(c *Config) any { return c.EnvFile }},
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for _, st := range settings {
		viper.SetDefault(st.name, st.def(cfg))
	}
}

// defineCommandLineFlags sets up one flag per setting, typed after its default
func defineCommandLineFlags(cfg *Config) {
	for _, st := range settings {
		switch v := st.def(cfg).(type) {
		case string:
			pflag.String(st.name, v, st.usage)
		case int:
			pflag.Int(st.name, v, st.usage)
		case int64:
			pflag.Int64(st.name, v, st.usage)
		case bool:
			pflag.Bool(st.name, v, st.usage)
		}
	}
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, st := range settings {
		_ = viper.BindPFlag(st.name, pflag.Lookup(st.name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		w := os.Stderr
		prog := os.Args[0]
		fmt.Fprintf(w, "Usage of %s:\n\n", prog)
		fmt.Fprintln(w, "MCP PDF Action Inspector - A Model Context Protocol server that reports "+
			"the JavaScript and other Actions embedded in PDF files")
		fmt.Fprintln(w, "\nOptions:")
		pflag.PrintDefaults()
		fmt.Fprintln(w, "\nExamples:")
		fmt.Fprintf(w, "  %s --dir=/path/to/pdfs                # stdio mode\n", prog)
		fmt.Fprintf(w, "  %s --mode=server --dir=/path/to/pdfs  # SSE server mode\n", prog)
		fmt.Fprintf(w, "  %s --env-file=.env                    # read settings from a file\n", prog)
		fmt.Fprintln(w, "\nEnvironment Variables:")
		for _, st := range settings {
			fmt.Fprintf(w, "  %s\n", envName(st.name))
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = strings.ToLower(viper.GetString("log-level"))
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
	cfg.CacheCapacity = viper.GetInt("cache-capacity")
	cfg.MaxConcurrentOpens = viper.GetInt("max-concurrent-opens")
	cfg.WatchFiles = viper.GetBool("watch")
	cfg.EnvFile = viper.GetString("env-file")
}

// Validate checks the struct constraints and makes sure the PDF directory
// exists, creating it if needed
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return describe(verrs[0])
		}
		return err
	}

	// port only matters when listening
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	return nil
}

// describe turns the first failed constraint into a readable message
func describe(fe validator.FieldError) error {
	switch fe.Field() {
	case "Mode":
		return errors.New("mode must be either 'stdio' or 'server'")
	case "Host":
		return errors.New("host cannot be empty in server mode")
	case "PDFDirectory":
		return errors.New("PDF directory cannot be empty")
	case "MaxFileSize":
		return errors.New("maximum file size must be positive")
	case "CacheCapacity":
		return fmt.Errorf("cache capacity must be between 1 and 1024, got %v", fe.Value())
	case "MaxConcurrentOpens":
		return fmt.Errorf("max concurrent opens must be between 1 and 64, got %v", fe.Value())
	case "LogLevel":
		return fmt.Errorf("invalid log level: %v (must be one of: debug, info, warn, error)", fe.Value())
	}
	return fmt.Errorf("invalid %s: failed %q constraint", fe.Field(), fe.Tag())
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"CacheCapacity: %d, MaxConcurrentOpens: %d, WatchFiles: %t}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize,
		c.CacheCapacity, c.MaxConcurrentOpens, c.WatchFiles)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
