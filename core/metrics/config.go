package metrics

// Config holds configuration for the metrics collector.
type Config struct {
	// Enabled toggles collection and the /metrics route.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Path is the route the Prometheus handler is mounted on.
	Path string `mapstructure:"path" default:"/metrics"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace" default:"artifact_store"`
}
