package google

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Auth modes accepted by NewCredentialStrategy.
const (
	AuthModeOAuth          = "oauth"
	AuthModeServiceAccount = "service-account"
)

// CredentialStrategy produces the token source used for Google API calls.
// This abstraction lets the calendar client stay unaware of how credentials
// are obtained and refreshed.
type CredentialStrategy interface {
	// TokenSource returns a token source that refreshes itself as needed
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)

	// Name identifies the strategy in logs
	Name() string
}

// StrategyConfig holds the settings for every strategy; only the fields of
// the selected mode are read.
type StrategyConfig struct {
	Mode string

	// OAuth token file mode
	TokenFile    string
	ClientID     string
	ClientSecret string

	// Service account mode
	CredentialsFile string
	Subject         string
}

// NewCredentialStrategy builds the strategy selected by cfg.Mode.
func NewCredentialStrategy(cfg StrategyConfig) (CredentialStrategy, error) {
	switch cfg.Mode {
	case AuthModeOAuth, "":
		tokenFile := cfg.TokenFile
		if tokenFile == "" {
			tokenFile = DefaultTokenFile()
		}
		return &OAuthTokenFile{
			Path:         tokenFile,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		}, nil
	case AuthModeServiceAccount:
		if cfg.CredentialsFile == "" {
			return nil, fmt.Errorf("service account mode requires a credentials file")
		}
		return &ServiceAccount{
			CredentialsFile: cfg.CredentialsFile,
			Subject:         cfg.Subject,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q (supported: %s, %s)", cfg.Mode, AuthModeOAuth, AuthModeServiceAccount)
	}
}

// OAuthTokenFile provides tokens from a token file on disk
type OAuthTokenFile struct {
	Path         string
	ClientID     string
	ClientSecret string
}

// Name implements CredentialStrategy.
func (p *OAuthTokenFile) Name() string {
	return AuthModeOAuth
}

// TokenSource loads the stored token and wraps it in a refreshing source.
func (p *OAuthTokenFile) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := LoadToken(p.Path)
	if err != nil {
		return nil, err
	}

	conf := GetOAuthConfig(p.ClientID, p.ClientSecret)
	return conf.TokenSource(ctx, token), nil
}

// ServiceAccount provides tokens from a service-account key file
type ServiceAccount struct {
	CredentialsFile string

	// Subject is the Workspace user to impersonate (domain-wide delegation).
	// Empty means the service account acts as itself, which requires the
	// calendar to be shared with the service account's address.
	Subject string
}

// Name implements CredentialStrategy.
func (s *ServiceAccount) Name() string {
	return AuthModeServiceAccount
}

// TokenSource parses the key file into a JWT config.
func (s *ServiceAccount) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(s.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, CalendarScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	if s.Subject != "" {
		conf.Subject = s.Subject
	}

	return conf.TokenSource(ctx), nil
}
