package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "QUILL"
	configFileName = "config.json"
	databaseName   = "quill.db"
	exportDirName  = "documents"
)

// Config holds the settings shared by every command. Empty DatabasePath and
// ExportDir are resolved inside DataDir.
type Config struct {
	LogLevel        string `json:"log_level" mapstructure:"log_level"`
	LogFormat       string `json:"log_format" mapstructure:"log_format"`
	DataDir         string `json:"data_dir" mapstructure:"data_dir"`
	DatabasePath    string `json:"database_path" mapstructure:"database_path"`
	ExportDir       string `json:"export_dir" mapstructure:"export_dir"`
	DefaultCategory string `json:"default_category" mapstructure:"default_category"`
	DefaultFormat   string `json:"default_format" mapstructure:"default_format"`
	PreviewLength   int    `json:"preview_length" mapstructure:"preview_length"`
	ListLimit       int    `json:"list_limit" mapstructure:"list_limit"`
	ServerAddr      string `json:"server_addr" mapstructure:"server_addr"`
}

// DefaultDataDir is ~/.quill, or ./.quill when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quill"
	}
	return filepath.Join(home, ".quill")
}

// DefaultConfigPath is the config file inside DefaultDataDir.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), configFileName)
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		DataDir:         DefaultDataDir(),
		DatabasePath:    "",
		ExportDir:       "",
		DefaultCategory: "general",
		DefaultFormat:   "txt",
		PreviewLength:   400,
		ListLimit:       25,
		ServerAddr:      ":7380",
	}
}

// flagKeys maps global flag names onto config keys.
var flagKeys = map[string]string{
	"log-level":  "log_level",
	"db":         "database_path",
	"export-dir": "export_dir",
}

// LoadConfig reads the configuration from a JSON file at the given path, then
// applies QUILL_* environment variables and any changed flags in flags (which
// may be nil). If the file doesn't exist, it is created with default values.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	defaults := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v, defaults)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err = writeDefaultConfig(path, defaults); err != nil {
			// Still usable with defaults.
			fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.resolvePaths()
	return cfg, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("log_format", c.LogFormat)
	v.SetDefault("data_dir", c.DataDir)
	v.SetDefault("database_path", c.DatabasePath)
	v.SetDefault("export_dir", c.ExportDir)
	v.SetDefault("default_category", c.DefaultCategory)
	v.SetDefault("default_format", c.DefaultFormat)
	v.SetDefault("preview_length", c.PreviewLength)
	v.SetDefault("list_limit", c.ListLimit)
	v.SetDefault("server_addr", c.ServerAddr)
}

func writeDefaultConfig(path string, c *Config) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

func (c *Config) resolvePaths() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, databaseName)
	}
	if c.ExportDir == "" {
		c.ExportDir = filepath.Join(c.DataDir, exportDirName)
	}
}
