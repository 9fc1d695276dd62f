// Package config loads wsptranscriber settings from the config file,
// the environment, a .env file and the OS keyring.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const ApplicationName = "wsptranscriber"

// Config holds all settings of a run.
type Config struct {
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	TranscriptionModel    string
	TranscriptionLanguage string
	OrganizeModel         string
	TranscribeTimeout     time.Duration
	OrganizeTimeout       time.Duration
	Concurrency           int
	NoOrganize            bool
	LogLevel              string
	LogJSON               bool
}

// Dir returns the configuration directory, honoring XDG_CONFIG_HOME.
func Dir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Clean(filepath.Join(configHome, ApplicationName)), nil
}

// Init prepares v: defaults, the JSON config file in dir, environment
// variables prefixed WSPTRANSCRIBER_ and a .env file in the working
// directory. A missing config file or .env is not an error.
func Init(v *viper.Viper, dir string) error {
	// .env never overrides variables that are already set.
	_ = godotenv.Load()

	v.SetDefault("transcription_model", "whisper-1")
	v.SetDefault("transcription_language", "es")
	v.SetDefault("organize_model", "gpt-4o-mini")
	v.SetDefault("transcribe_timeout", 90*time.Second)
	v.SetDefault("organize_timeout", 120*time.Second)
	v.SetDefault("concurrency", 1)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("no_organize", false)

	v.AddConfigPath(dir)
	v.SetConfigType("json")
	v.SetConfigName("config")

	v.SetEnvPrefix(strings.ToUpper(ApplicationName))
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))
	v.AutomaticEnv()
	// The SDK's own variable names work too.
	if err := v.BindEnv("openai_api_key", "WSPTRANSCRIBER_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return err
	}
	if err := v.BindEnv("openai_base_url", "WSPTRANSCRIBER_OPENAI_BASE_URL", "OPENAI_BASE_URL"); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// Load reads the settings from an initialized viper instance. When no API
// key is configured it is looked up in keys.
func Load(v *viper.Viper, keys KeyStore) Config {
	cfg := Config{
		OpenAIAPIKey:          v.GetString("openai_api_key"),
		OpenAIBaseURL:         v.GetString("openai_base_url"),
		TranscriptionModel:    v.GetString("transcription_model"),
		TranscriptionLanguage: v.GetString("transcription_language"),
		OrganizeModel:         v.GetString("organize_model"),
		TranscribeTimeout:     v.GetDuration("transcribe_timeout"),
		OrganizeTimeout:       v.GetDuration("organize_timeout"),
		Concurrency:           v.GetInt("concurrency"),
		NoOrganize:            v.GetBool("no_organize"),
		LogLevel:              v.GetString("log_level"),
		LogJSON:               v.GetBool("log_json"),
	}

	if cfg.OpenAIAPIKey == "" && keys != nil {
		if key, err := keys.APIKey(); err == nil {
			cfg.OpenAIAPIKey = key
		}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg
}
