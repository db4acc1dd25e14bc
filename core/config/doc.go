// Package config provides configuration management for the artifact store.
//
// It uses Viper for reading environment variables, optionally seeded from a
// .env file through godotenv. Defaults live next to each field in the
// `default` struct tag and are registered recursively, so every key is
// visible to AutomaticEnv as SECTION_FIELD.
//
// # Configuration Structure
//
//   - Server: operational HTTP server (port, timeouts)
//   - Storage: endpoint, bucket, credentials, per-call timeout
//   - Retry: retry budget, backoff bounds, worker pool size
//   - Log: level and format
//   - Metrics: Prometheus collector toggle and route
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Storage.Bucket)
package config
