package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Content  ContentConfig  `mapstructure:"content"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Populate PopulateConfig `mapstructure:"populate"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig holds the content API endpoints and client credentials
type APIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	AuthURL      string        `mapstructure:"auth_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ContentConfig selects what is fetched with each chapter
type ContentConfig struct {
	Language     string `mapstructure:"language"`
	Translations []int  `mapstructure:"translations"` // Translation resource ids embedded in verses
	Tafsirs      []int  `mapstructure:"tafsirs"`      // Tafsir resource ids populated in bulk
	Words        bool   `mapstructure:"words"`
	PerPage      int    `mapstructure:"per_page"`
}

// AudioConfig holds the CDN template and local cache bounds
type AudioConfig struct {
	CDNURL         string `mapstructure:"cdn_url"`
	CacheDir       string `mapstructure:"cache_dir"`
	Narrator       string `mapstructure:"narrator"`
	MaxBytes       int64  `mapstructure:"max_bytes"` // 0 means unbounded
	PreloadWorkers int    `mapstructure:"preload_workers"`
}

// PopulateConfig holds bulk population settings
type PopulateConfig struct {
	Concurrency   int   `mapstructure:"concurrency"`
	IncludeTafsir bool  `mapstructure:"include_tafsir"`
	Popular       []int `mapstructure:"popular"`
}

// StorageConfig holds the local database location
type StorageConfig struct {
	Path string `mapstructure:"path"` // Empty derives a path from the API URL
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://apis.quran.foundation/content/api/v4",
			AuthURL: "https://oauth2.quran.foundation/oauth2/token",
			Timeout: 30 * time.Second,
		},
		Content: ContentConfig{
			Language:     "en",
			Translations: []int{131},
			Tafsirs:      []int{169},
			Words:        true,
			PerPage:      50,
		},
		Audio: AudioConfig{
			CDNURL:         "https://everyayah.com/data",
			CacheDir:       filepath.Join(defaultDataPath(), "audio"),
			Narrator:       "Alafasy_128kbps",
			PreloadWorkers: 2,
		},
		Populate: PopulateConfig{
			Concurrency: 5,
			Popular:     []int{1, 18, 36, 55, 56, 67, 112, 113, 114},
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "tilawa.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "tilawa")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "tilawa")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "tilawa")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "tilawa")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "tilawa")
	}
}

// DataPath returns the directory holding databases and caches
func DataPath() string {
	return defaultDataPath()
}

// LoadConfig loads configuration from file and environment.
// An empty path searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Every key needs a default for AutomaticEnv to see it during Unmarshal
	setDefaults(v, cfg)

	// Environment variable overrides, e.g. TILAWA_API_CLIENT_SECRET
	v.SetEnvPrefix("TILAWA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.auth_url", cfg.API.AuthURL)
	v.SetDefault("api.client_id", cfg.API.ClientID)
	v.SetDefault("api.client_secret", cfg.API.ClientSecret)
	v.SetDefault("api.timeout", cfg.API.Timeout)

	v.SetDefault("content.language", cfg.Content.Language)
	v.SetDefault("content.translations", cfg.Content.Translations)
	v.SetDefault("content.tafsirs", cfg.Content.Tafsirs)
	v.SetDefault("content.words", cfg.Content.Words)
	v.SetDefault("content.per_page", cfg.Content.PerPage)

	v.SetDefault("audio.cdn_url", cfg.Audio.CDNURL)
	v.SetDefault("audio.cache_dir", cfg.Audio.CacheDir)
	v.SetDefault("audio.narrator", cfg.Audio.Narrator)
	v.SetDefault("audio.max_bytes", cfg.Audio.MaxBytes)
	v.SetDefault("audio.preload_workers", cfg.Audio.PreloadWorkers)

	v.SetDefault("populate.concurrency", cfg.Populate.Concurrency)
	v.SetDefault("populate.include_tafsir", cfg.Populate.IncludeTafsir)
	v.SetDefault("populate.popular", cfg.Populate.Popular)

	v.SetDefault("storage.path", cfg.Storage.Path)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// IsConfigured returns true if the client credentials are set
func (c *Config) IsConfigured() bool {
	return c.API.ClientID != "" && c.API.ClientSecret != ""
}

// Validate reports settings that would fail at the first network call
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.AuthURL == "" {
		errs = append(errs, errors.New("api.auth_url is required"))
	}
	if !c.IsConfigured() {
		errs = append(errs, errors.New("api.client_id and api.client_secret are required"))
	}
	if c.Content.PerPage <= 0 {
		errs = append(errs, errors.New("content.per_page must be positive"))
	}
	if c.Populate.Concurrency <= 0 {
		errs = append(errs, errors.New("populate.concurrency must be positive"))
	}
	if c.Audio.Narrator == "" {
		errs = append(errs, errors.New("audio.narrator is required"))
	}
	if c.Audio.MaxBytes < 0 {
		errs = append(errs, errors.New("audio.max_bytes must not be negative"))
	}
	return errors.Join(errs...)
}

// DatabasePath returns the configured database path or one scoped to the API URL
func (c *Config) DatabasePath(scoped func(baseDir, apiURL string) string) string {
	if c.Storage.Path != "" {
		return expandHome(c.Storage.Path)
	}
	return scoped(defaultDataPath(), c.API.BaseURL)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
