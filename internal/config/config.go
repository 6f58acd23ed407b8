package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	API      APIConfig      `yaml:"api"`
	Store    StoreConfig    `yaml:"store"`
	Bot      BotConfig      `yaml:"bot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type TelegramConfig struct {
	// Token is read from the BOT_TOKEN environment variable when empty.
	Token           string `yaml:"token" default:""`
	PollTimeoutSecs int    `yaml:"poll_timeout_seconds" default:"50"`
}

type APIConfig struct {
	BaseURL     string `yaml:"base_url" default:"https://mataroa.blog/api/posts/"`
	TimeoutSecs int    `yaml:"timeout_seconds" default:"12"`
}

type StoreConfig struct {
	// Backend selects the session store implementation: file | sqlite.
	Backend string `yaml:"backend" default:"file"`
	// Dir defaults to ~/.config/mataroa-bot when empty; the
	// MATAROA_BOT_DIR environment variable overrides both.
	Dir string `yaml:"dir" default:""`
}

type BotConfig struct {
	PageSize          int `yaml:"page_size" default:"5"`
	PostsCacheTTLSecs int `yaml:"posts_cache_ttl_seconds" default:"10"`
	PreviewMaxChars   int `yaml:"preview_max_chars" default:"3900"`
	CooldownMillis    int `yaml:"cooldown_millis" default:"1500"`
	DeleteGraceSecs   int `yaml:"delete_grace_seconds" default:"15"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(config)

	AppConfig = config
	return nil
}

// applyEnvOverrides lets deployment environment variables win over the
// config file for secrets and paths.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		config.Telegram.Token = v
	}
	if v := os.Getenv("MATAROA_API_URL"); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv("MATAROA_BOT_DIR"); v != "" {
		config.Store.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if config.Store.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		config.Store.Dir = filepath.Join(home, ".config", "mataroa-bot")
	}
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
