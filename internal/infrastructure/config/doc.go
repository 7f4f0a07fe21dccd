// Package config loads service configuration following 12-factor rules.
//
// Sources, lowest to highest precedence:
//   - Struct-tag defaults
//   - A .env file in the working directory (optional)
//   - Process environment variables
//   - CLI flags applied by cmd/server
package config
