package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lobocrea/wsptranscriber/internal/config"
)

var useKeyring bool

// keyStore is replaced in tests.
var keyStore config.KeyStore = config.Keyring{}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up the OpenAI API key",
	Long: `Interactively stores the OpenAI API key used for transcription and
organization. The key is validated against the API and written to
~/.config/wsptranscriber/config.json, or to the system keyring with --keyring.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&useKeyring, "keyring", false, "Store the API key in the system keyring instead of the config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(dir, "config.json")
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	existingKey := ""

	if useKeyring {
		existingKey, _ = keyStore.APIKey()
	} else if _, err := os.Stat(configPath); err == nil {
		existingKey, _ = readExistingKey(configPath)

		fmt.Fprintf(out, "Config already exists at %s\n", configPath)
		fmt.Fprint(out, "Overwrite? [y/N]: ")

		var answer string
		fmt.Fscanln(in, &answer) //nolint:errcheck // interactive CLI input, error not actionable

		if !strings.EqualFold(answer, "y") {
			return nil
		}
	}

	prompt := "OpenAI API Key: "
	if existingKey != "" {
		prompt = fmt.Sprintf("OpenAI API Key [%s]: ", maskKey(existingKey))
	}

	fmt.Fprint(out, prompt)

	var apiKey string
	fmt.Fscanln(in, &apiKey) //nolint:errcheck // interactive CLI input, error not actionable

	if apiKey == "" && existingKey != "" {
		apiKey = existingKey
	}

	if apiKey == "" {
		return fmt.Errorf("API key must not be empty")
	}

	fmt.Fprint(out, "Validating API key... ")

	if err := validateAPIKey(cmd.Context(), apiKey, viper.GetString("openai_base_url")); err != nil {
		fmt.Fprintln(out, "FAILED")
		return fmt.Errorf("invalid API key: %w", err)
	}

	fmt.Fprintln(out, "OK")

	if useKeyring {
		if err := keyStore.SetAPIKey(apiKey); err != nil {
			return fmt.Errorf("storing key in keyring: %w", err)
		}
		fmt.Fprintln(out, "API key stored in the system keyring")
		return nil
	}

	if err := writeConfig(dir, configPath, apiKey); err != nil {
		return err
	}

	fmt.Fprintf(out, "Config written to %s\n", configPath)
	return nil
}

// writeConfig sets the key in the config file, keeping other settings.
func writeConfig(dir, configPath, apiKey string) error {
	if err := os.MkdirAll(dir, 0750); err != nil { //nolint:gosec // path from XDG_CONFIG_HOME or user home dir
		return fmt.Errorf("creating config directory: %w", err)
	}

	cfg := map[string]any{}
	if data, err := os.ReadFile(configPath); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}
	cfg["openai_api_key"] = apiKey

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func readExistingKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", err
	}

	key, _ := cfg["openai_api_key"].(string)
	return key, nil
}

func maskKey(key string) string {
	if len(key) < 12 {
		return "***"
	}
	return key[:7] + "***" + key[len(key)-3:]
}

func validateAPIKey(ctx context.Context, apiKey, baseURL string) error {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	_, err := client.Models.List(ctx)
	return err
}
