package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreNone     = "none"
)

// Global configuration structure.
type Global struct {
	// Persistence
	Store       string `mapstructure:"store" yaml:"store"`
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir"`
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`
	DBMaxConns  int32  `mapstructure:"db_max_conns" yaml:"db_max_conns"`
	RedisURL    string `mapstructure:"redis_url" yaml:"redis_url"`

	// HTTP server
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Analysis
	Workers    int `mapstructure:"workers" yaml:"workers"`
	SniffBytes int `mapstructure:"sniff_bytes" yaml:"sniff_bytes"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"store", "data_dir", "database_url", "db_max_conns", "redis_url",
	"listen_addr", "max_upload_mb", "workers", "sniff_bytes",
	"log_level", "log_format",
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".csvlens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.csvlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CSVLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", StoreFile)
	v.SetDefault("data_dir", "")
	v.SetDefault("database_url", "")
	v.SetDefault("db_max_conns", 25)
	v.SetDefault("redis_url", "")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("max_upload_mb", 50)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("sniff_bytes", 5000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// the file is optional; a malformed one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DataDir == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		c.DataDir = filepath.Join(dir, "datasets")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks enumerated and numeric settings.
func (c *Global) Validate() error {
	switch c.Store {
	case StoreFile, StorePostgres, StoreRedis, StoreNone:
	default:
		return fmt.Errorf("invalid store %q (want file, postgres, redis or none)", c.Store)
	}
	if c.Store == StorePostgres && c.DatabaseURL == "" {
		return fmt.Errorf("store %q requires database_url", c.Store)
	}
	if c.Store == StoreRedis && c.RedisURL == "" {
		return fmt.Errorf("store %q requires redis_url", c.Store)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want console or json)", c.LogFormat)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive")
	}
	return nil
}

// Set assigns a single key from its string form, as used by `config set`.
func (c *Global) Set(key, value string) error {
	atoi := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	var n int
	switch key {
	case "store":
		c.Store = value
	case "data_dir":
		c.DataDir = value
	case "database_url":
		c.DatabaseURL = value
	case "db_max_conns":
		if err := atoi(&n); err != nil {
			return err
		}
		c.DBMaxConns = int32(n)
	case "redis_url":
		c.RedisURL = value
	case "listen_addr":
		c.ListenAddr = value
	case "max_upload_mb":
		if err := atoi(&n); err != nil {
			return err
		}
		c.MaxUploadMB = int64(n)
	case "workers":
		if err := atoi(&c.Workers); err != nil {
			return err
		}
	case "sniff_bytes":
		if err := atoi(&c.SniffBytes); err != nil {
			return err
		}
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}

// Get returns the string form of a key, as used by `config show`.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "store":
		return c.Store, nil
	case "data_dir":
		return c.DataDir, nil
	case "database_url":
		return c.DatabaseURL, nil
	case "db_max_conns":
		return strconv.Itoa(int(c.DBMaxConns)), nil
	case "redis_url":
		return c.RedisURL, nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "max_upload_mb":
		return strconv.FormatInt(c.MaxUploadMB, 10), nil
	case "workers":
		return strconv.Itoa(c.Workers), nil
	case "sniff_bytes":
		return strconv.Itoa(c.SniffBytes), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}
