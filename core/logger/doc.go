// Package logger builds the zap logger shared by the CLI and the ops server.
//
// New reads a Config. Level is parsed with zapcore.ParseLevel, so an unknown
// level is an error rather than a silent fallback; "debug" also switches to
// zap's development preset. Format picks json or console encoding. Either way
// entries carry ISO8601 timestamps under "time" and the text under "message".
//
//	log, err := logger.New(&logger.Config{Level: "info", Format: "json"})
//
// Request correlation goes through the ray id the rayid middleware stores in
// Fiber locals under RayIDKey. WithRayID copies it onto a child logger:
//
//	logger.WithRayID(log, c).Warn("Storage engine not ready", zap.Error(err))
package logger
