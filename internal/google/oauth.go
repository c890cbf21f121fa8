package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultRedirectURL is the loopback redirect used for the manual code flow.
// The browser lands on a page that fails to load; the code is read from the
// address bar.
const DefaultRedirectURL = "http://localhost"

// GetOAuthConfig returns the OAuth2 configuration for the calendar scopes
func GetOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  DefaultRedirectURL,
		Scopes:       CalendarScopes,
	}
}

// GetAuthURL returns the URL a user visits to grant calendar access.
// Offline access with forced consent guarantees a refresh token.
func GetAuthURL(conf *oauth2.Config) string {
	return conf.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// SaveToken exchanges an authorization code for tokens and saves them to path
func SaveToken(ctx context.Context, conf *oauth2.Config, authCode, path string) error {
	t, err := conf.Exchange(ctx, strings.TrimSpace(authCode))
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if t.RefreshToken == "" {
		return fmt.Errorf("token response carried no refresh token; revoke the app's access and retry")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// LoadToken reads a token file. Both the JSON form written by SaveToken and
// the legacy "<access> <refresh>" form are accepted.
func LoadToken(path string) (*oauth2.Token, error) {
	slurp, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token found at %s: %w", path, err)
	}

	trimmed := strings.TrimSpace(string(slurp))
	if strings.HasPrefix(trimmed, "{") {
		var token oauth2.Token
		if err := json.Unmarshal([]byte(trimmed), &token); err != nil {
			return nil, fmt.Errorf("invalid token file %s: %w", path, err)
		}
		if token.RefreshToken == "" && token.AccessToken == "" {
			return nil, fmt.Errorf("invalid token file %s: no access or refresh token", path)
		}
		return &token, nil
	}

	f := strings.Fields(trimmed)
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format in %s", path)
	}

	// Expiry in the past forces a refresh on first use
	return &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	}, nil
}

// HasToken reports whether a token file exists at path
func HasToken(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultTokenFile returns the token location under the user cache directory
func DefaultTokenFile() string {
	return filepath.Join(userCacheDir(), "voicecal", "google-token.json")
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
