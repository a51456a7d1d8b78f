package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once at startup and handed to constructors. It is never
// mutated afterwards.
type Config struct {
	Server          ServerConfig
	Vision          VisionConfig
	Gemini          GeminiConfig
	Mistral         MistralConfig
	LLMTimeout      time.Duration
	DefaultLanguage string
	VoiceEnabled    bool
	Debug           bool
}

type ServerConfig struct {
	Host string
	Port int
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type VisionConfig struct {
	Endpoint      string
	PredictionKey string
	ProjectID     string
	Iteration     string
	Timeout       time.Duration
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

func (g GeminiConfig) Enabled() bool { return g.APIKey != "" }

type MistralConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

func (m MistralConfig) Enabled() bool { return m.APIKey != "" }

// Load reads the process environment. Call gotenv.Load beforehand to pick up
// a local .env file.
func Load() (*Config, error) {
	var errs []error

	port, err := intEnv("PORT", 8000)
	errs = append(errs, err)
	classifierTimeout, err := durationEnv("CLASSIFIER_TIMEOUT", 15*time.Second)
	errs = append(errs, err)
	llmTimeout, err := durationEnv("LLM_TIMEOUT", 20*time.Second)
	errs = append(errs, err)
	voice, err := boolEnv("VOICE_ENABLED", false)
	errs = append(errs, err)
	debug, err := boolEnv("DEBUG", false)
	errs = append(errs, err)

	cfg := &Config{
		Server: ServerConfig{
			Host: stringEnv("HOST", "0.0.0.0"),
			Port: port,
		},
		Vision: VisionConfig{
			Endpoint:      stringEnv("AZURE_CUSTOM_VISION_ENDPOINT", ""),
			PredictionKey: stringEnv("AZURE_CUSTOM_VISION_PREDICTION_KEY", ""),
			ProjectID:     stringEnv("AZURE_CUSTOM_VISION_PROJECT_ID", ""),
			Iteration:     stringEnv("AZURE_CUSTOM_VISION_ITERATION", ""),
			Timeout:       classifierTimeout,
		},
		Gemini: GeminiConfig{
			APIKey: stringEnv("GEMINI_API_KEY", ""),
			Model:  stringEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
		},
		Mistral: MistralConfig{
			APIKey:  stringEnv("MISTRAL_API_KEY", ""),
			Model:   stringEnv("MISTRAL_MODEL", "mistral-large-latest"),
			BaseURL: stringEnv("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),
		},
		LLMTimeout:      llmTimeout,
		DefaultLanguage: stringEnv("DEFAULT_LANGUAGE", "fr"),
		VoiceEnabled:    voice,
		Debug:           debug,
	}

	errs = append(errs, cfg.Vision.validate())
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (v VisionConfig) validate() error {
	var missing []string
	if v.Endpoint == "" {
		missing = append(missing, "AZURE_CUSTOM_VISION_ENDPOINT")
	}
	if v.PredictionKey == "" {
		missing = append(missing, "AZURE_CUSTOM_VISION_PREDICTION_KEY")
	}
	if v.ProjectID == "" {
		missing = append(missing, "AZURE_CUSTOM_VISION_PROJECT_ID")
	}
	if v.Iteration == "" {
		missing = append(missing, "AZURE_CUSTOM_VISION_ITERATION")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func stringEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := stringEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := stringEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("parse %s: %w", key, err)
	}
	if v <= 0 {
		return fallback, fmt.Errorf("%s must be positive", key)
	}
	return v, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := stringEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
