// Package google provides the credential strategies used to reach Google APIs.
//
// Two strategies are supported and selected by configuration:
//   - OAuthTokenFile: a user's OAuth token (with refresh token) stored on disk,
//     refreshed with the configured OAuth client credentials.
//   - ServiceAccount: a service-account JSON key, optionally impersonating a
//     Workspace user through domain-wide delegation.
//
// Both satisfy CredentialStrategy, so the calendar client never knows which one
// is in use.
package google
