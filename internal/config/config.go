package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teemow/voicecal/internal/google"
	"github.com/teemow/voicecal/internal/llm"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/wallclock"
)

// EnvConfigFile names the YAML file to load when --config is not given.
const EnvConfigFile = "VOICECAL_CONFIG"

// Config is the complete service configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Calendar     CalendarConfig     `yaml:"calendar"`
	Auth         AuthConfig         `yaml:"auth"`
	LLM          LLMConfig          `yaml:"llm"`
	Conversation ConversationConfig `yaml:"conversation"`
	Log          LogConfig          `yaml:"log"`
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MCPEnabled      bool          `yaml:"mcp_enabled"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// MetricsConfig configures the dedicated metrics server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// CalendarConfig selects the calendar and the business time zone.
type CalendarConfig struct {
	ID                   string `yaml:"id"`
	TimeZone             string `yaml:"timezone"`
	OperatorEmail        string `yaml:"operator_email"`
	RecheckBeforeBooking bool   `yaml:"recheck_before_booking"`
}

// AuthConfig selects how calendar credentials are obtained.
type AuthConfig struct {
	Mode string `yaml:"mode"`

	TokenFile    string `yaml:"token_file"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	CredentialsFile string `yaml:"credentials_file"`
	Subject         string `yaml:"subject"`
}

// LLMConfig configures the completion API.
type LLMConfig struct {
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ConversationConfig holds the spoken defaults.
type ConversationConfig struct {
	Persona           string `yaml:"persona"`
	FallbackReply     string `yaml:"fallback_reply"`
	ToolFallbackReply string `yaml:"tool_fallback_reply"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MCPEnabled:      true,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    3 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Calendar: CalendarConfig{
			ID:       "primary",
			TimeZone: "UTC",
		},
		Auth: AuthConfig{
			Mode: google.AuthModeOAuth,
		},
		LLM: LLMConfig{
			Model:     llm.DefaultModel,
			BaseURL:   llm.DefaultBaseURL,
			MaxTokens: llm.DefaultMaxTokens,
			Timeout:   llm.DefaultTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatJSON,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path falls back to $VOICECAL_CONFIG; if that is
// empty too, no file is read.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := LoadDotEnv(); err != nil {
		return cfg, err
	}

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory when it exists.
// Variables already set in the environment are kept.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings needed to serve requests.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.LLM.APIKey) == "" {
		errs = append(errs, errors.New("llm api key is required (ANTHROPIC_API_KEY)"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm max tokens must be positive, got %d", c.LLM.MaxTokens))
	}
	if c.LLM.Timeout < 0 {
		errs = append(errs, fmt.Errorf("llm timeout must not be negative, got %s", c.LLM.Timeout))
	}
	// a chat turn can make two model calls before it writes the reply
	if llmTimeout := c.effectiveLLMTimeout(); c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= 2*llmTimeout {
		errs = append(errs, fmt.Errorf("server write timeout %s must exceed twice the llm timeout (%s)",
			c.Server.WriteTimeout, 2*llmTimeout))
	}
	if err := c.ValidateCalendar(); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address must not be empty"))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics address must not be empty when metrics are enabled"))
	}

	return errors.Join(errs...)
}

func (c Config) effectiveLLMTimeout() time.Duration {
	if c.LLM.Timeout <= 0 {
		return llm.DefaultTimeout
	}
	return c.LLM.Timeout
}

// ValidateCalendar checks only what the calendar and logging need. The
// operator commands use it since they never call the model.
func (c Config) ValidateCalendar() error {
	var errs []error

	if strings.TrimSpace(c.Calendar.ID) == "" {
		errs = append(errs, errors.New("calendar id must not be empty"))
	}
	if _, err := wallclock.LoadZone(c.Calendar.TimeZone); err != nil {
		errs = append(errs, err)
	}
	if err := c.Auth.validate(); err != nil {
		errs = append(errs, err)
	}
	logOpts := c.LoggingOptions(false)
	logOpts.Output = io.Discard
	if _, err := logging.New(logOpts); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (a AuthConfig) validate() error {
	switch a.Mode {
	case google.AuthModeOAuth:
		if a.ClientID == "" || a.ClientSecret == "" {
			return errors.New("oauth mode requires a client id and secret (GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET)")
		}
		return nil
	case google.AuthModeServiceAccount:
		if a.CredentialsFile == "" {
			return errors.New("service-account mode requires a credentials file (GOOGLE_APPLICATION_CREDENTIALS)")
		}
		return nil
	default:
		return fmt.Errorf("unsupported auth mode %q (supported: %s, %s)", a.Mode, google.AuthModeOAuth, google.AuthModeServiceAccount)
	}
}

// Zone loads the configured business time zone.
func (c Config) Zone() (wallclock.Zone, error) {
	return wallclock.LoadZone(c.Calendar.TimeZone)
}

// StrategyConfig returns the credential settings for google.NewCredentialStrategy.
func (c Config) StrategyConfig() google.StrategyConfig {
	return google.StrategyConfig{
		Mode:            c.Auth.Mode,
		TokenFile:       c.Auth.TokenFile,
		ClientID:        c.Auth.ClientID,
		ClientSecret:    c.Auth.ClientSecret,
		CredentialsFile: c.Auth.CredentialsFile,
		Subject:         c.Auth.Subject,
	}
}

// AnthropicConfig returns the completion client settings.
func (c Config) AnthropicConfig() llm.AnthropicConfig {
	return llm.AnthropicConfig{
		APIKey:    c.LLM.APIKey,
		Model:     c.LLM.Model,
		BaseURL:   c.LLM.BaseURL,
		MaxTokens: c.LLM.MaxTokens,
		Timeout:   c.LLM.Timeout,
	}
}

// LoggingOptions returns the logger settings. debug forces the text
// format at debug level.
func (c Config) LoggingOptions(debug bool) logging.Options {
	if debug {
		return logging.Options{Level: "debug", Format: logging.FormatText}
	}
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format}
}
