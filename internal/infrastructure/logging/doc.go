// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Child loggers are derived per component (Component) and per desktop
// session (ForSession) so every line carries the session it belongs to.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.ForSession(sid, pid).Warn("Preference save failed", zap.Error(err))
package logging
