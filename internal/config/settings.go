package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// SettingsGetter is an interface for retrieving settings from storage
type SettingsGetter interface {
	GetSetting(key string) (string, error)
}

// EnvSettings resolves dotted setting keys from environment variables:
// "log.max_size_mb" is read from ROLLBOOK_LOG_MAX_SIZE_MB.
type EnvSettings struct {
	Prefix string
	lookup func(string) (string, bool)
}

// NewEnvSettings creates an environment-backed settings source
func NewEnvSettings(prefix string) *EnvSettings {
	return &EnvSettings{Prefix: prefix, lookup: os.LookupEnv}
}

// EnvKey returns the environment variable name for a setting key
func (e *EnvSettings) EnvKey(key string) string {
	name := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	if e.Prefix == "" {
		return name
	}
	return e.Prefix + "_" + name
}

// GetSetting returns the value for key, or "" when unset
func (e *EnvSettings) GetSetting(key string) (string, error) {
	val, _ := e.lookup(e.EnvKey(key))
	return strings.TrimSpace(val), nil
}

// Loader provides typed access to settings with default values
type Loader struct {
	src SettingsGetter
}

// NewLoader creates a new settings loader
func NewLoader(src SettingsGetter) *Loader {
	return &Loader{src: src}
}

// Int retrieves an integer setting, returning defaultVal if not found or invalid
func (l *Loader) Int(key string, defaultVal int) int {
	if val, _ := l.src.GetSetting(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// Bool retrieves a boolean setting, returning defaultVal if not found
// Recognizes "true" as true, anything else (including "false") as false
func (l *Loader) Bool(key string, defaultVal bool) bool {
	if val, _ := l.src.GetSetting(key); val != "" {
		return val == "true"
	}
	return defaultVal
}

// String retrieves a string setting, returning defaultVal if not found or empty
func (l *Loader) String(key, defaultVal string) string {
	if val, _ := l.src.GetSetting(key); val != "" {
		return val
	}
	return defaultVal
}

// Duration retrieves a duration setting, returning defaultVal if not found or invalid
// Expects the value to be in Go duration format (e.g., "1h30m", "5s")
func (l *Loader) Duration(key string, defaultVal time.Duration) time.Duration {
	if val, _ := l.src.GetSetting(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
