package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/voicecal/internal/config"
	"github.com/teemow/voicecal/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		code  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Long: `Run the OAuth consent flow for the business calendar and store the token.

Open the printed URL, grant access, and paste the "code" parameter from the
address the browser is redirected to. Pass --code to skip the prompt.
Only needed when GOOGLE_AUTH_MODE is oauth.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cfg.Auth.Mode != google.AuthModeOAuth {
				return fmt.Errorf("auth mode is %q; only %s mode uses a token file", cfg.Auth.Mode, google.AuthModeOAuth)
			}
			if cfg.Auth.ClientID == "" || cfg.Auth.ClientSecret == "" {
				return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
			}

			tokenFile := cfg.Auth.TokenFile
			if tokenFile == "" {
				tokenFile = google.DefaultTokenFile()
			}
			out := cmd.OutOrStdout()
			if google.HasToken(tokenFile) && !force {
				fmt.Fprintf(out, "A token already exists at %s. Use --force to replace it.\n", tokenFile)
				return nil
			}

			conf := google.GetOAuthConfig(cfg.Auth.ClientID, cfg.Auth.ClientSecret)
			if code == "" {
				fmt.Fprintf(out, "Visit this URL to grant calendar access:\n\n%s\n\nAuthorization code: ", google.GetAuthURL(conf))
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
				code = strings.TrimSpace(line)
			}
			if code == "" {
				return errors.New("authorization code must not be empty")
			}

			if err := google.SaveToken(cmd.Context(), conf, code, tokenFile); err != nil {
				return err
			}
			fmt.Fprintf(out, "Token saved to %s\n", tokenFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent redirect")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing token")

	return cmd
}
