package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Search SearchConfig `mapstructure:"search"`
	UI     UIConfig     `mapstructure:"ui"`
	Media  MediaConfig  `mapstructure:"media"`
	Keys   KeyConfig    `mapstructure:"keys"`
	Log    LogConfig    `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	SpriteBaseURL     string        `mapstructure:"sprite_base_url"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	PageSize          int           `mapstructure:"page_size"`
	IndexLimit        int           `mapstructure:"index_limit"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	DefaultRetryAfter time.Duration `mapstructure:"default_retry_after"`
	AllowPrivateHosts bool          `mapstructure:"allow_private_hosts"`
}

type SearchConfig struct {
	Debounce       time.Duration `mapstructure:"debounce"`
	Engine         string        `mapstructure:"engine"`
	MaxQueryLength int           `mapstructure:"max_query_length"`
}

type UIConfig struct {
	Colors        UIColors `mapstructure:"colors"`
	LoadThreshold int      `mapstructure:"load_threshold"`
	WordWrapMax   int      `mapstructure:"word_wrap_max_width"`
	WordWrapMin   int      `mapstructure:"word_wrap_min_width"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type MediaConfig struct {
	Darwin        []string `mapstructure:"darwin"`
	Linux         []string `mapstructure:"linux"`
	Windows       []string `mapstructure:"windows"`
	DefaultOpener string   `mapstructure:"default_opener"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit        string `mapstructure:"quit"`
	Search      string `mapstructure:"search"`
	Retry       string `mapstructure:"retry"`
	OpenArtwork string `mapstructure:"open_artwork"`
	Back        string `mapstructure:"back"`
	Help        string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

const (
	EngineLinear = "linear"
	EngineBleve  = "bleve"
)

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			BaseURL:           "https://pokeapi.co/api/v2/",
			SpriteBaseURL:     "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/",
			HTTPTimeout:       30 * time.Second,
			UserAgent:         "dex/1.0 (https://github.com/pders01/dex)",
			PageSize:          50,
			IndexLimit:        1302,
			RequestsPerSecond: 10,
			Burst:             5,
			DefaultRetryAfter: 15 * time.Second,
		},
		Search: SearchConfig{
			Debounce:       400 * time.Millisecond,
			Engine:         EngineLinear,
			MaxQueryLength: 256,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#EF5350",
				Secondary:  "#4ECDC4",
				Accent:     "#FFEB3B",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			LoadThreshold: 5,
			WordWrapMax:   100,
			WordWrapMin:   40,
		},
		Media: MediaConfig{
			Darwin:        []string{"preview", "open"},
			Linux:         []string{"sxiv", "feh", "eog", "xdg-open"},
			Windows:       []string{"start"},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:        "q",
				Search:      "s",
				Retry:       "r",
				OpenArtwork: "o",
				Back:        "esc",
				Help:        "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".dex", "dex.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// envKeys can be overridden with DEX_-prefixed environment variables,
// e.g. DEX_API_BASE_URL or DEX_LOG_LEVEL.
var envKeys = []string{
	"api.base_url",
	"api.page_size",
	"api.user_agent",
	"search.engine",
	"search.debounce",
	"log.level",
	"log.file",
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "dex")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Decode over the defaults so partially specified sections keep the
	// values they omit.
	config := defaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.Log.File = expandPath(config.Log.File)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects values the session cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("api.page_size must be positive, got %d", c.API.PageSize)
	}
	if c.API.IndexLimit <= 0 {
		return fmt.Errorf("api.index_limit must be positive, got %d", c.API.IndexLimit)
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("search.debounce must not be negative")
	}
	switch c.Search.Engine {
	case "", EngineLinear, EngineBleve:
	default:
		return fmt.Errorf("unknown search.engine %q (want %q or %q)", c.Search.Engine, EngineLinear, EngineBleve)
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	v.Set("api", map[string]interface{}{
		"base_url":            config.API.BaseURL,
		"sprite_base_url":     config.API.SpriteBaseURL,
		"http_timeout":        config.API.HTTPTimeout.String(),
		"user_agent":          config.API.UserAgent,
		"page_size":           config.API.PageSize,
		"index_limit":         config.API.IndexLimit,
		"requests_per_second": config.API.RequestsPerSecond,
		"burst":               config.API.Burst,
		"default_retry_after": config.API.DefaultRetryAfter.String(),
		"allow_private_hosts": config.API.AllowPrivateHosts,
	})
	v.Set("search", map[string]interface{}{
		"debounce":         config.Search.Debounce.String(),
		"engine":           config.Search.Engine,
		"max_query_length": config.Search.MaxQueryLength,
	})
	c := config.UI.Colors
	v.Set("ui", map[string]interface{}{
		"load_threshold":      config.UI.LoadThreshold,
		"word_wrap_max_width": config.UI.WordWrapMax,
		"word_wrap_min_width": config.UI.WordWrapMin,
		"colors": map[string]interface{}{
			"primary":    c.Primary,
			"secondary":  c.Secondary,
			"accent":     c.Accent,
			"background": c.Background,
			"surface":    c.Surface,
			"text":       c.Text,
			"muted":      c.Muted,
			"error":      c.Error,
			"success":    c.Success,
		},
	})
	v.Set("media", map[string]interface{}{
		"darwin":         config.Media.Darwin,
		"linux":          config.Media.Linux,
		"windows":        config.Media.Windows,
		"default_opener": config.Media.DefaultOpener,
	})
	b := config.Keys.Bindings
	v.Set("keys", map[string]interface{}{
		"modifier": config.Keys.Modifier,
		"bindings": map[string]interface{}{
			"quit":         b.Quit,
			"search":       b.Search,
			"retry":        b.Retry,
			"open_artwork": b.OpenArtwork,
			"back":         b.Back,
			"help":         b.Help,
		},
	})
	v.Set("log", map[string]interface{}{
		"level": config.Log.Level,
		"file":  config.Log.File,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
