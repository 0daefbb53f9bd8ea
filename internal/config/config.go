package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"gopkg.in/yaml.v3"

	"interiordesigner/internal/apperr"
)

// Config holds runtime configuration values.
type Config struct {
	Claude    ClaudeConfig `yaml:"claude"`
	Images    ImageConfig  `yaml:"images"`
	OutputDir string       `yaml:"output_dir" env:"OUTPUT_DIR"`
	Database  string       `yaml:"database_url" env:"DATABASE_URL"`
	Media     MediaConfig  `yaml:"media"`
	Web       WebConfig    `yaml:"web"`
	Log       LogConfig    `yaml:"log"`
}

// ClaudeConfig describes how the analysis CLI is invoked.
type ClaudeConfig struct {
	Model   string        `yaml:"model" env:"CLAUDE_MODEL"`
	Binary  string        `yaml:"binary" env:"CLAUDE_BINARY"`
	Timeout time.Duration `yaml:"timeout" env:"CLAUDE_TIMEOUT"`
}

// ImageConfig selects and configures the image generation provider.
type ImageConfig struct {
	Provider    string        `yaml:"provider" env:"IMAGE_PROVIDER"`
	Timeout     time.Duration `yaml:"timeout" env:"IMAGE_TIMEOUT"`
	MinPriority string        `yaml:"min_priority" env:"IMAGE_MIN_PRIORITY"`

	OpenRouterAPIKey  string `yaml:"openrouter_api_key" env:"OPENROUTER_API_KEY"`
	OpenRouterModel   string `yaml:"openrouter_model" env:"OPENROUTER_IMAGE_MODEL"`
	OpenRouterBaseURL string `yaml:"openrouter_base_url" env:"OPENROUTER_BASE_URL"`

	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	GeminiModel  string `yaml:"gemini_model" env:"GEMINI_IMAGE_MODEL"`

	VertexProjectID       string `yaml:"vertex_project_id" env:"VERTEX_PROJECT_ID"`
	VertexLocation        string `yaml:"vertex_location" env:"VERTEX_LOCATION"`
	VertexModel           string `yaml:"vertex_model" env:"VERTEX_MODEL"`
	VertexCredentialsFile string `yaml:"vertex_credentials_file" env:"VERTEX_CREDENTIALS_FILE"`
}

// MediaConfig describes the optional S3 archive for session artifacts.
type MediaConfig struct {
	Bucket         string `yaml:"bucket" env:"S3_BUCKET"`
	Region         string `yaml:"region" env:"S3_REGION"`
	Endpoint       string `yaml:"endpoint" env:"S3_ENDPOINT"`
	PublicURL      string `yaml:"public_url" env:"S3_PUBLIC_URL"`
	KeyPrefix      string `yaml:"key_prefix" env:"S3_KEY_PREFIX"`
	ForcePathStyle bool   `yaml:"force_path_style" env:"S3_FORCE_PATH_STYLE"`

	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY"`
}

// WebConfig configures the upload UI.
type WebConfig struct {
	Port         string `yaml:"port" env:"APP_PORT"`
	User         string `yaml:"user" env:"WEB_USER"`
	PasswordHash string `yaml:"password_hash" env:"WEB_PASSWORD_HASH"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Image providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderVertex     = "vertex"
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Claude: ClaudeConfig{
			Model:   "sonnet",
			Binary:  "claude",
			Timeout: 5 * time.Minute,
		},
		Images: ImageConfig{
			Provider:          ProviderOpenRouter,
			Timeout:           2 * time.Minute,
			MinPriority:       "high",
			OpenRouterModel:   "sourceful/riverflow-v2-fast-preview",
			OpenRouterBaseURL: "https://openrouter.ai/api/v1",
			GeminiModel:       "gemini-2.5-flash-image",
			VertexLocation:    "us-central1",
			VertexModel:       "imagen-3.0-capability-001",
		},
		OutputDir: "./output",
		Web:       WebConfig{Port: "8501"},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file in the
// working directory and finally the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, apperr.Configuration("config", fmt.Sprintf("read %s: %v", path, err))
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, apperr.Configuration("config", fmt.Sprintf("parse %s: %v", path, err))
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, apperr.Configuration("config", fmt.Sprintf("read .env: %v", err))
	}

	if err := env.Load(&cfg, nil); err != nil {
		return Config{}, apperr.Configuration("config", fmt.Sprintf("load environment: %v", err))
	}

	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) normalize() {
	c.Images.Provider = strings.ToLower(strings.TrimSpace(c.Images.Provider))
	c.Images.MinPriority = strings.ToLower(strings.TrimSpace(c.Images.MinPriority))
	c.Images.OpenRouterBaseURL = strings.TrimSuffix(strings.TrimSpace(c.Images.OpenRouterBaseURL), "/")
	c.Media.KeyPrefix = strings.Trim(c.Media.KeyPrefix, "/")
	c.Media.AccessKeyID = strings.TrimSpace(c.Media.AccessKeyID)
	c.Media.SecretAccessKey = strings.TrimSpace(c.Media.SecretAccessKey)
	c.Claude.Model = strings.TrimSpace(c.Claude.Model)
}

// Validate checks settings that are needed by every command.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return apperr.Configuration("config", "OUTPUT_DIR cannot be empty")
	}
	switch c.Images.Provider {
	case ProviderOpenRouter, ProviderGemini, ProviderVertex:
	default:
		return apperr.Configuration("config", fmt.Sprintf("IMAGE_PROVIDER %q is not one of openrouter, gemini, vertex", c.Images.Provider))
	}
	switch c.Images.MinPriority {
	case "high", "medium", "low":
	default:
		return apperr.Configuration("config", fmt.Sprintf("IMAGE_MIN_PRIORITY %q must be high, medium or low", c.Images.MinPriority))
	}
	if (c.Media.AccessKeyID == "") != (c.Media.SecretAccessKey == "") {
		return apperr.Configuration("config", "S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

// RequireClaude returns a configuration error when the analysis CLI cannot
// be invoked.
func (c Config) RequireClaude() error {
	if strings.TrimSpace(c.Claude.Binary) == "" {
		return apperr.Configuration("config", "CLAUDE_BINARY cannot be empty")
	}
	if c.Claude.Model == "" {
		return apperr.Configuration("config", "CLAUDE_MODEL cannot be empty")
	}
	return nil
}

// ImageGenerationEnabled reports whether the selected provider has the
// credentials it needs.
func (c Config) ImageGenerationEnabled() bool {
	return c.RequireImages() == nil
}

// RequireImages returns a configuration error naming what the selected image
// provider is missing.
func (c Config) RequireImages() error {
	img := c.Images
	switch img.Provider {
	case ProviderGemini:
		if strings.TrimSpace(img.GeminiAPIKey) == "" {
			return apperr.Configuration("config", "GEMINI_API_KEY is required for the gemini image provider")
		}
	case ProviderVertex:
		if strings.TrimSpace(img.VertexProjectID) == "" || strings.TrimSpace(img.VertexLocation) == "" {
			return apperr.Configuration("config", "VERTEX_PROJECT_ID and VERTEX_LOCATION are required for the vertex image provider")
		}
	default:
		key := strings.TrimSpace(img.OpenRouterAPIKey)
		if key == "" || key == "sk-or-..." {
			return apperr.Configuration("config", "OPENROUTER_API_KEY is required for image generation")
		}
		if img.OpenRouterModel == "" {
			return apperr.Configuration("config", "OPENROUTER_IMAGE_MODEL cannot be empty")
		}
	}
	return nil
}

// ArchiveEnabled reports whether session artifacts should be mirrored to S3.
func (c Config) ArchiveEnabled() bool {
	return c.Media.Bucket != "" && c.Media.Region != ""
}
