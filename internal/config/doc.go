// Package config loads the voicecal settings.
//
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults
//  2. an optional YAML file (--config or VOICECAL_CONFIG)
//  3. environment variables, after loading a .env file if present
//  4. command-line flags the user set explicitly (applied by cmd)
//
// Validate reports every problem at once so a misconfigured deployment
// fails on the first start rather than one field at a time.
package config
