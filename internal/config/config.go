package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	Log       LogConfig
	Transport TransportConfig
	UI        UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
	// JournalKeep bounds the directive journal; 0 keeps everything.
	JournalKeep int `mapstructure:"journal_keep"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string
	Development bool
	// File receives logs while the terminal UI owns stderr.
	File string
}

// TransportConfig says where directives come from.
type TransportConfig struct {
	// Source is a JSON-lines file, or "-" for stdin.
	Source string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Headless       bool
	ShowDeprecated bool `mapstructure:"show_deprecated"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"db":        "database.path",
	"source":    "transport.source",
	"log-level": "log.level",
	"headless":  "ui.headless",
}

// Flags declares the command-line overrides understood by LoadWithFlags.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tabsync", pflag.ContinueOnError)
	fs.String("db", "", "path to the sqlite state database")
	fs.String("source", "", `directive stream (JSON lines), "-" for stdin`)
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Bool("headless", false, "log updates instead of starting the terminal UI")
	fs.Bool("write-config", false, "write the effective configuration file and exit")
	fs.Bool("reset", false, "discard the stored tab snapshot and start in bootstrap mode")
	fs.Int("history", 0, "print the newest N journal entries and exit")
	return fs
}

// LoadWithFlags reads configuration from file and env, with command-line
// flags taking precedence. Env var overrides use prefix TABSYNC_. Only flags
// that were set override anything; fs may be nil.
func LoadWithFlags(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "tabsync", "tabsync.db"))
	v.SetDefault("database.journal_keep", 1000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", filepath.Join(os.Getenv("HOME"), ".local", "state", "tabsync", "tabsync.log"))
	v.SetDefault("transport.source", "-")
	v.SetDefault("ui.headless", false)
	v.SetDefault("ui.show_deprecated", true)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("TABSYNC_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "tabsync"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TABSYNC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("TABSYNC_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "tabsync", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.journal_keep", cfg.Database.JournalKeep)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.development", cfg.Log.Development)
	v.Set("log.file", cfg.Log.File)
	v.Set("transport.source", cfg.Transport.Source)
	v.Set("ui.headless", cfg.UI.Headless)
	v.Set("ui.show_deprecated", cfg.UI.ShowDeprecated)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
