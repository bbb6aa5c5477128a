package config

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces the environment variables read through Loader
const EnvPrefix = "ROLLBOOK"

// DefaultPort matches the port the apps have always listened on
const DefaultPort = 5000

// Flags carries raw command-line values before environment fallbacks
type Flags struct {
	Port          int
	Bind          string
	AllowSubnet   string
	DBPath        string
	Secret        string
	LogFile       string
	TemplatesDir  string
	Verbosity     int
	SecureCookies bool
	Timeouts      TimeoutConfig
}

// AppConfig is the resolved startup configuration of one app
type AppConfig struct {
	App              string
	Port             int
	Bind             string
	AllowedNet       *net.IPNet
	DBPath           string
	Secret           []byte
	SecretGenerated  bool
	Verbosity        int
	LogFile          string
	TemplatesDir     string
	SecureCookies    bool
	OptimizeSchedule string
	VacuumSchedule   string
	Timeouts         TimeoutConfig
	Settings         *Loader
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already present in the environment are not overridden.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Resolve applies environment fallbacks and defaults to the CLI flags.
// defaultDB is used when neither --db nor DB_PATH is set.
func Resolve(app string, f Flags, defaultDB string) (*AppConfig, error) {
	settings := NewLoader(NewEnvSettings(EnvPrefix))

	cfg := &AppConfig{
		App:           app,
		Port:          f.Port,
		Bind:          f.Bind,
		DBPath:        f.DBPath,
		Verbosity:     f.Verbosity,
		LogFile:       f.LogFile,
		TemplatesDir:  f.TemplatesDir,
		SecureCookies: f.SecureCookies || settings.Bool("secure_cookies", false),
		Timeouts:      f.Timeouts,
		Settings:      settings,
	}

	// Check for PORT env var if flag not set
	if cfg.Port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			p, err := strconv.Atoi(envPort)
			if err != nil {
				return nil, fmt.Errorf("invalid PORT environment variable %q: %w", envPort, err)
			}
			cfg.Port = p
		}
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = os.Getenv("DB_PATH")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDB
	}

	// Validate bind address if provided
	if cfg.Bind != "" {
		if ip := net.ParseIP(cfg.Bind); ip == nil {
			return nil, fmt.Errorf("invalid bind address: %s", cfg.Bind)
		}
	}

	// Validate and parse allow-subnet if provided
	if f.AllowSubnet != "" {
		_, parsedNet, err := net.ParseCIDR(f.AllowSubnet)
		if err != nil {
			return nil, fmt.Errorf("invalid allow-subnet CIDR: %s", f.AllowSubnet)
		}
		cfg.AllowedNet = parsedNet
	}

	secret := f.Secret
	if secret == "" {
		secret = settings.String("secret", "")
	}
	if secret != "" {
		cfg.Secret = []byte(secret)
	} else {
		cfg.Secret = make([]byte, 32)
		if _, err := rand.Read(cfg.Secret); err != nil {
			return nil, fmt.Errorf("failed to generate secret: %w", err)
		}
		cfg.SecretGenerated = true
	}

	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = settings.String("templates_dir", "")
	}

	cfg.OptimizeSchedule = settings.String("maintenance.optimize_schedule", "@daily")
	cfg.VacuumSchedule = settings.String("maintenance.vacuum_schedule", "@weekly")

	defaults := DefaultTimeoutConfig()
	if cfg.Timeouts.Read <= 0 {
		cfg.Timeouts.Read = defaults.Read
	}
	if cfg.Timeouts.Idle <= 0 {
		cfg.Timeouts.Idle = defaults.Idle
	}
	if cfg.Timeouts.Request <= 0 {
		cfg.Timeouts.Request = defaults.Request
	}
	if cfg.Timeouts.Shutdown <= 0 {
		cfg.Timeouts.Shutdown = defaults.Shutdown
	}

	return cfg, nil
}

// Addr returns the listen address
func (c *AppConfig) Addr() string {
	if c.Bind != "" {
		return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
	}
	return fmt.Sprintf(":%d", c.Port)
}
