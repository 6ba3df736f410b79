// Package config loads kasboard settings from TOML, the environment, and .env.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvTreasurerPassword = "KASBOARD_BENDAHARA_PASSWORD"
	EnvMemberPassword    = "KASBOARD_ANGGOTA_PASSWORD"
	EnvDataDir           = "KASBOARD_DATA_DIR"
	EnvConfigPath        = "KASBOARD_CONFIG"
)

// DefaultTimezone is where transaction dates are entered and displayed.
const DefaultTimezone = "Asia/Jakarta"

// Config holds all kasboard configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Auth       AuthConfig       `toml:"auth"`
	Appearance AppearanceConfig `toml:"appearance"`
	Mirror     MirrorConfig     `toml:"mirror"`
	Server     ServerConfig     `toml:"server"`
}

// GeneralConfig holds data and display preferences.
type GeneralConfig struct {
	DataDir     string `toml:"data_dir"`
	RecentLimit int    `toml:"recent_limit"`
	Timezone    string `toml:"timezone"`
	LogLevel    string `toml:"log_level,omitempty"`
}

// AuthConfig holds the two account passwords. Prefer the environment
// variables; these are the fallback.
type AuthConfig struct {
	TreasurerPassword string `toml:"bendahara_password,omitempty"`
	MemberPassword    string `toml:"anggota_password,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// MirrorConfig controls the optional SQLite copy of the data.
type MirrorConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// ServerConfig holds settings for `kasboard serve`.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	PollInterval int    `toml:"poll_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DataDir:     "financial_data",
			RecentLimit: 10,
			Timezone:    DefaultTimezone,
		},
		Appearance: AppearanceConfig{
			Theme: "kas-gelap",
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8788",
			PollInterval: 5,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kasboard")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "kasboard")
}

// Path returns the full path to the config file. KASBOARD_CONFIG wins.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // user-chosen config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to Path().
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path via a temp file and rename. The file is
// 0600 because it may hold passwords.
func SaveTo(path string, cfg Config) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = f.Chmod(0o600); err != nil {
		return err
	}
	if err = toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.General.DataDir) == "" {
		problems = append(problems, "general.data_dir must not be empty")
	}
	if c.General.RecentLimit < 1 {
		problems = append(problems, fmt.Sprintf("general.recent_limit %d: must be at least 1", c.General.RecentLimit))
	}
	if _, err := time.LoadLocation(c.General.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("general.timezone %q: %v", c.General.Timezone, err))
	}
	if c.Server.PollInterval < 1 {
		problems = append(problems, fmt.Sprintf("server.poll_interval_sec %d: must be at least 1", c.Server.PollInterval))
	}
	if c.Mirror.Enabled && strings.TrimSpace(c.Mirror.Path) == "" {
		problems = append(problems, "mirror.path must be set when mirror.enabled is true")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// TreasurerPassword returns the bendahara password from env or config, in that order.
func TreasurerPassword(cfg Config) string {
	if pw := os.Getenv(EnvTreasurerPassword); pw != "" {
		return pw
	}
	return cfg.Auth.TreasurerPassword
}

// MemberPassword returns the anggota password from env or config, in that order.
func MemberPassword(cfg Config) string {
	if pw := os.Getenv(EnvMemberPassword); pw != "" {
		return pw
	}
	return cfg.Auth.MemberPassword
}

// DataDir returns the data directory from env or config, in that order.
func DataDir(cfg Config) string {
	if d := os.Getenv(EnvDataDir); d != "" {
		return d
	}
	return cfg.General.DataDir
}

// LoadDotEnv loads the given .env files (default ".env") into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Location loads the configured timezone. Unknown names fall back to a
// fixed UTC+7 zone so Jakarta dates still come out right without tzdata.
func Location(cfg Config) *time.Location {
	name := cfg.General.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone("WIB", 7*60*60)
}
