// Package middleware holds the gin middleware shared by every route:
// CORS for the desktop client, token-bucket rate limiting and request body
// size limits.
package middleware
