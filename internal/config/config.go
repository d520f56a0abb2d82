package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
	Vector VectorConfig `mapstructure:"vector"`
	Log    LogConfig    `mapstructure:"log"`
	Dev    DevConfig    `mapstructure:"dev"`
}

// ServerConfig points at the pixel backend.
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Insight string        `mapstructure:"insight"`
}

// ClientConfig tunes how requests reach the backend.
type ClientConfig struct {
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	RateBurst      int           `mapstructure:"rate_burst"`
	BreakerEnabled bool          `mapstructure:"breaker_enabled"`
}

// VectorConfig holds the settings used when creating and querying vector
// databases.
type VectorConfig struct {
	EmbedderEngine   string `mapstructure:"embedder_engine"`
	TrainingTag      string `mapstructure:"training_tag"`
	VectorType       string `mapstructure:"vector_type"`
	ContentLength    int    `mapstructure:"content_length"`
	ContentOverlap   int    `mapstructure:"content_overlap"`
	ChunkingStrategy string `mapstructure:"chunking_strategy"`
	DistanceMethod   string `mapstructure:"distance_method"`
	QueryLimit       int    `mapstructure:"query_limit"`
}

// LogConfig holds logger settings. An empty File logs to stderr.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// DevConfig configures the local stand-in backend.
type DevConfig struct {
	Addr         string `mapstructure:"addr"`
	DatabasePath string `mapstructure:"database_path"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
}

// Path returns the config file location: explicit if given, then
// PROCODE_CONFIG, then ~/.config/procode/config.toml.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("PROCODE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "procode", "config.toml")
}

func newViper(path string) *viper.Viper {
	v := viper.New()

	home := os.Getenv("HOME")
	v.SetDefault("server.url", "http://localhost:9090/Monolith")
	v.SetDefault("server.timeout", 60*time.Second)
	v.SetDefault("server.insight", "")
	v.SetDefault("client.retry_attempts", 3)
	v.SetDefault("client.retry_backoff", 250*time.Millisecond)
	v.SetDefault("client.rate_per_second", 10.0)
	v.SetDefault("client.rate_burst", 5)
	v.SetDefault("client.breaker_enabled", true)
	v.SetDefault("vector.embedder_engine", "")
	v.SetDefault("vector.training_tag", "pro-code-training")
	v.SetDefault("vector.vector_type", "FAISS")
	v.SetDefault("vector.content_length", 512)
	v.SetDefault("vector.content_overlap", 20)
	v.SetDefault("vector.chunking_strategy", "ALL")
	v.SetDefault("vector.distance_method", "Squared Euclidean (L2) distance")
	v.SetDefault("vector.query_limit", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", filepath.Join(home, ".local", "state", "procode", "procode.log"))
	v.SetDefault("dev.addr", "127.0.0.1:9090")
	v.SetDefault("dev.database_path", filepath.Join(home, ".local", "share", "procode", "dev.db"))
	v.SetDefault("dev.username", "dev")
	v.SetDefault("dev.password", "dev")

	v.SetConfigType("toml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("PROCODE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads configuration from defaults, the file at Path(explicit) if it
// exists, and PROCODE_* environment variables.
func Load(explicit string) (Config, error) {
	v := newViper(Path(explicit))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	return c, nil
}

// Save writes cfg to Path(explicit), creating the directory if needed. The
// dev password is not written.
func Save(cfg Config, explicit string) error {
	path := Path(explicit)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("server.insight", cfg.Server.Insight)
	v.Set("client.retry_attempts", cfg.Client.RetryAttempts)
	v.Set("client.retry_backoff", cfg.Client.RetryBackoff.String())
	v.Set("client.rate_per_second", cfg.Client.RatePerSecond)
	v.Set("client.rate_burst", cfg.Client.RateBurst)
	v.Set("client.breaker_enabled", cfg.Client.BreakerEnabled)
	v.Set("vector.embedder_engine", cfg.Vector.EmbedderEngine)
	v.Set("vector.training_tag", cfg.Vector.TrainingTag)
	v.Set("vector.vector_type", cfg.Vector.VectorType)
	v.Set("vector.content_length", cfg.Vector.ContentLength)
	v.Set("vector.content_overlap", cfg.Vector.ContentOverlap)
	v.Set("vector.chunking_strategy", cfg.Vector.ChunkingStrategy)
	v.Set("vector.distance_method", cfg.Vector.DistanceMethod)
	v.Set("vector.query_limit", cfg.Vector.QueryLimit)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("log.file", cfg.Log.File)
	v.Set("dev.addr", cfg.Dev.Addr)
	v.Set("dev.database_path", cfg.Dev.DatabasePath)
	v.Set("dev.username", cfg.Dev.Username)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Watch calls fn with the reloaded configuration every time the file at
// Path(explicit) changes. The file must exist when Watch is called.
func Watch(explicit string, fn func(Config, error)) error {
	path := Path(explicit)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(decode(v))
	})
	v.WatchConfig()
	return nil
}
