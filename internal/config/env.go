package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Environment variables read by Load.
const (
	EnvHTTPAddr             = "VOICECAL_HTTP_ADDR"
	EnvMCPEnabled           = "VOICECAL_MCP_ENABLED"
	EnvMaxBodyBytes         = "VOICECAL_MAX_BODY_BYTES"
	EnvMetricsEnabled       = "METRICS_ENABLED"
	EnvMetricsAddr          = "METRICS_ADDR"
	EnvCalendarID           = "CALENDAR_ID"
	EnvTimeZone             = "CALENDAR_TIMEZONE"
	EnvOperatorEmail        = "OPERATOR_EMAIL"
	EnvRecheckBeforeBooking = "RECHECK_BEFORE_BOOKING"
	EnvAuthMode             = "GOOGLE_AUTH_MODE"
	EnvTokenFile            = "GOOGLE_TOKEN_FILE"
	EnvClientID             = "GOOGLE_CLIENT_ID"
	EnvClientSecret         = "GOOGLE_CLIENT_SECRET"
	EnvCredentialsFile      = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvSubject              = "GOOGLE_IMPERSONATE_SUBJECT"
	EnvAnthropicAPIKey      = "ANTHROPIC_API_KEY"
	EnvAnthropicModel       = "ANTHROPIC_MODEL"
	EnvAnthropicBaseURL     = "ANTHROPIC_BASE_URL"
	EnvLLMMaxTokens         = "LLM_MAX_TOKENS"
	EnvLLMTimeout           = "LLM_TIMEOUT"
	EnvPersona              = "VOICECAL_PERSONA"
	EnvLogLevel             = "LOG_LEVEL"
	EnvLogFormat            = "LOG_FORMAT"
)

type lookupFunc func(string) (string, bool)

// applyEnv overrides fields whose variable is set and non-empty.
func (c *Config) applyEnv(lookup lookupFunc) error {
	env := envReader{lookup: lookup}

	env.str(EnvHTTPAddr, &c.Server.Addr)
	env.boolean(EnvMCPEnabled, &c.Server.MCPEnabled)
	env.int64(EnvMaxBodyBytes, &c.Server.MaxBodyBytes)

	env.boolean(EnvMetricsEnabled, &c.Metrics.Enabled)
	env.str(EnvMetricsAddr, &c.Metrics.Addr)

	env.str(EnvCalendarID, &c.Calendar.ID)
	env.str(EnvTimeZone, &c.Calendar.TimeZone)
	env.str(EnvOperatorEmail, &c.Calendar.OperatorEmail)
	env.boolean(EnvRecheckBeforeBooking, &c.Calendar.RecheckBeforeBooking)

	env.str(EnvAuthMode, &c.Auth.Mode)
	env.str(EnvTokenFile, &c.Auth.TokenFile)
	env.str(EnvClientID, &c.Auth.ClientID)
	env.str(EnvClientSecret, &c.Auth.ClientSecret)
	env.str(EnvCredentialsFile, &c.Auth.CredentialsFile)
	env.str(EnvSubject, &c.Auth.Subject)

	env.str(EnvAnthropicAPIKey, &c.LLM.APIKey)
	env.str(EnvAnthropicModel, &c.LLM.Model)
	env.str(EnvAnthropicBaseURL, &c.LLM.BaseURL)
	env.integer(EnvLLMMaxTokens, &c.LLM.MaxTokens)
	env.duration(EnvLLMTimeout, &c.LLM.Timeout)

	env.str(EnvPersona, &c.Conversation.Persona)

	env.str(EnvLogLevel, &c.Log.Level)
	env.str(EnvLogFormat, &c.Log.Format)

	return errors.Join(env.errs...)
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (r *envReader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: expected true or false", key, v))
		return
	}
	*dst = b
}

func (r *envReader) integer(key string, dst *int) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: expected an integer", key, v))
		return
	}
	*dst = n
}

func (r *envReader) int64(key string, dst *int64) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: expected an integer", key, v))
		return
	}
	*dst = n
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return
	}
	*dst = d
}
