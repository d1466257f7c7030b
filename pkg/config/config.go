package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"timely/pkg/keymaps"
)

// EnvPrefix prefixes environment overrides, e.g. TIMELY_API_URL
const EnvPrefix = "TIMELY"

// Config holds the application configuration
type Config struct {
	APIURL     string            `mapstructure:"api_url" validate:"required,url"`
	Database   string            `mapstructure:"database" validate:"required"`
	KeyMap     map[string]string `mapstructure:"keymap"`
	StylesFile string            `mapstructure:"styles_file"`
	RateLimit  float64           `mapstructure:"rate_limit" validate:"gte=0"`
}

// Styles holds the application colors and styling information
type Styles struct {
	// UI element colors
	BorderColor string `mapstructure:"border_color"`
	AccentColor string `mapstructure:"accent_color"`

	// Text colors
	NormalTextColor   string `mapstructure:"normal_text_color"`
	MutedTextColor    string `mapstructure:"muted_text_color"`
	SelectedTextColor string `mapstructure:"selected_text_color"`
	SelectedBgColor   string `mapstructure:"selected_bg_color"`
	ErrorColor        string `mapstructure:"error_color"`

	// Tag and calendar colors
	TagColor         string `mapstructure:"tag_color"`
	ActiveTagColor   string `mapstructure:"active_tag_color"`
	TaskEventColor   string `mapstructure:"task_event_color"`
	FreeEventColor   string `mapstructure:"free_event_color"`
	ProvisionalColor string `mapstructure:"provisional_color"`
}

// Dir is the default configuration directory
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "timely"), nil
}

func defaultStyles() map[string]interface{} {
	return map[string]interface{}{
		"border_color":        "240",
		"accent_color":        "205",
		"normal_text_color":   "252",
		"muted_text_color":    "244",
		"selected_text_color": "229",
		"selected_bg_color":   "57",
		"error_color":         "9",
		"tag_color":           "37",
		"active_tag_color":    "214",
		"task_event_color":    "63",
		"free_event_color":    "29",
		"provisional_color":   "240",
	}
}

// Load reads the configuration from configPath (the default location when
// empty), writing a default file on first run. A .env file and TIMELY_*
// variables override the file.
func Load(configPath string) (Config, Styles, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	configDir, err := Dir()
	if err != nil {
		return Config{}, Styles{}, err
	}
	if configPath == "" {
		configPath = filepath.Join(configDir, "config.json")
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetDefault("api_url", "http://localhost:8000/api")
	v.SetDefault("database", filepath.Join(configDir, "prefs.db"))
	v.SetDefault("keymap", keymaps.GetDefaultKeyMappings())
	v.SetDefault("styles_file", filepath.Join(filepath.Dir(configPath), "styles.json"))
	v.SetDefault("rate_limit", 0)

	if err := readOrCreate(v, configPath); err != nil {
		return Config{}, Styles{}, err
	}

	// Environment wins over the file, but never gets written to it
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, Styles{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, Styles{}, fmt.Errorf("invalid configuration %s: %w", configPath, err)
	}

	styles, err := loadStyles(cfg.StylesFile)
	if err != nil {
		return cfg, styles, fmt.Errorf("error loading styles: %w", err)
	}

	return cfg, styles, nil
}

func readOrCreate(v *viper.Viper, path string) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}

// loadStyles loads the application styles from the specified path
func loadStyles(stylesPath string) (Styles, error) {
	v := viper.New()
	v.SetConfigFile(stylesPath)
	v.SetConfigType("json")
	for k, val := range defaultStyles() {
		v.SetDefault(k, val)
	}

	var styles Styles
	if err := readOrCreate(v, stylesPath); err != nil {
		_ = v.Unmarshal(&styles)
		return styles, err
	}
	if err := v.Unmarshal(&styles); err != nil {
		return styles, err
	}
	return styles, nil
}
