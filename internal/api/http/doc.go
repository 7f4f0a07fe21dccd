// Package http exposes desktop sessions, preferences and the static catalogs
// over a JSON API built on gin.
//
// Handlers translate requests into session operations and map domain errors
// to status codes in one place (see statusFor). A domain condition never
// produces a 5xx.
package http
