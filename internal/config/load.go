package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables use the LESSONFORGE_ prefix with
// underscores for nesting (LESSONFORGE_SERVER_PORT) and take precedence
// over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine; environment variables and defaults apply.
	}

	v.SetEnvPrefix("LESSONFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks a Config against its struct validation tags.
// Exposed separately so tests can validate hand-built configurations.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// setDefaults registers default values so a minimal deployment only has
// to supply secrets and provider credentials.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.request_timeout_seconds", 120)

	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.pool_size", 10)
	v.SetDefault("store.probe_timeout_millis", 50)
	v.SetDefault("store.fallback_enabled", true)

	// Generation endpoints are expensive; read-like endpoints effectively
	// unbounded.
	v.SetDefault("admission.endpoints", map[string]EndpointLimit{
		"generate": {Limit: 5, WindowSeconds: 300},
		"read":     {Limit: 10000, WindowSeconds: 60},
	})
	v.SetDefault("admission.default", EndpointLimit{Limit: 60, WindowSeconds: 60})

	v.SetDefault("cache.artifacts", map[string]ArtifactPolicy{
		"outline":        {BaseTTLSeconds: 3600, StabilityMultiplier: 1.0},
		"study_guide":    {BaseTTLSeconds: 3600, StabilityMultiplier: 1.0},
		"flashcards":     {BaseTTLSeconds: 3600, StabilityMultiplier: 2.0},
		"podcast_script": {BaseTTLSeconds: 3600, StabilityMultiplier: 0.5},
		"quiz":           {BaseTTLSeconds: 3600, StabilityMultiplier: 1.5},
	})

	v.SetDefault("quality.thresholds.min_overall", 0.70)
	v.SetDefault("quality.thresholds.min_pedagogical", 0.75)
	v.SetDefault("quality.thresholds.min_factual", 0.80)
	v.SetDefault("quality.weights", map[string]map[string]float64{
		"outline":        {"structure": 0.30, "readability": 0.20, "pedagogy": 0.25, "engagement": 0.10, "factuality": 0.15},
		"study_guide":    {"structure": 0.25, "readability": 0.20, "pedagogy": 0.30, "engagement": 0.10, "factuality": 0.15},
		"flashcards":     {"structure": 0.40, "readability": 0.15, "pedagogy": 0.20, "engagement": 0.10, "factuality": 0.15},
		"podcast_script": {"structure": 0.15, "readability": 0.20, "pedagogy": 0.20, "engagement": 0.30, "factuality": 0.15},
		"quiz":           {"structure": 0.35, "readability": 0.15, "pedagogy": 0.25, "engagement": 0.10, "factuality": 0.15},
	})

	v.SetDefault("failover.max_providers_tried", 3)
	v.SetDefault("failover.failure_threshold", 3)
	v.SetDefault("failover.cooldown_seconds", 60)
	v.SetDefault("failover.orchestration_timeout_seconds", 90)

	v.SetDefault("generation.max_regenerations", 2)
}

// EndpointLimitFor returns the admission limit for an endpoint class,
// falling back to the configured default for unknown classes.
func (c *AdmissionConfig) EndpointLimitFor(class string) EndpointLimit {
	if limit, ok := c.Endpoints[class]; ok {
		return limit
	}
	return c.Default
}

// PolicyFor returns the cache policy for an artifact type. The boolean
// reports whether the type had an explicit policy configured.
func (c *CacheConfig) PolicyFor(artifactType string) (ArtifactPolicy, bool) {
	policy, ok := c.Artifacts[artifactType]
	return policy, ok
}
