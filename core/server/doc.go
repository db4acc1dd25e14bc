// Package server holds the configuration of the operational HTTP server.
//
// The server only exposes /health and /metrics; it does not serve files.
// cmd/start builds the Fiber app from this configuration.
package server
