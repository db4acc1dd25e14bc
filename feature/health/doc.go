// Package health exposes liveness and readiness probes for the service.
//
// # HTTP Endpoints
//
//   - GET /health : the process is running.
//   - GET /ready  : the storage engine is started; retries Start when it is not.
package health
