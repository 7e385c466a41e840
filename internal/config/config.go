package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	Store      StoreConfig      `mapstructure:"store"      validate:"required"`
	Admission  AdmissionConfig  `mapstructure:"admission"  validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache"      validate:"required"`
	Quality    QualityConfig    `mapstructure:"quality"    validate:"required"`
	Providers  []ProviderConfig `mapstructure:"providers"  validate:"required,min=1,dive"`
	Failover   FailoverConfig   `mapstructure:"failover"   validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// RequestTimeoutSeconds bounds the whole pipeline for one request:
	// admission, cache lookup, orchestration and assessment combined.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
}

// AuthConfig contains authentication settings. The gateway only verifies
// tokens and extracts the subject claim; account management lives elsewhere.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// StoreConfig describes the shared key-value store and the fallback policy.
type StoreConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"     validate:"required"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"       validate:"gte=0"`
	PoolSize      int    `mapstructure:"pool_size"      validate:"gte=0"`

	// ProbeTimeoutMillis bounds every round trip to the shared store.
	// When the store does not answer within this budget the operation is
	// retried against the in-process fallback instead of failing the request.
	ProbeTimeoutMillis int `mapstructure:"probe_timeout_millis" validate:"required,gt=0"`

	// FallbackEnabled controls whether the in-process fallback store is
	// used when the shared store is unreachable. Disabling it surfaces
	// store outages as request errors and is only appropriate for
	// single-process deployments that must never split counters.
	FallbackEnabled bool `mapstructure:"fallback_enabled"`
}

// EndpointLimit configures the admission window for one endpoint class.
type EndpointLimit struct {
	Limit         int `mapstructure:"limit"          validate:"required,gt=0"`
	WindowSeconds int `mapstructure:"window_seconds" validate:"required,gt=0"`
}

// AdmissionConfig maps endpoint classes to their admission windows.
type AdmissionConfig struct {
	// Endpoints maps an endpoint class name to its limit. Classes not
	// present in the map fall back to Default.
	Endpoints map[string]EndpointLimit `mapstructure:"endpoints" validate:"required,min=1"`
	Default   EndpointLimit            `mapstructure:"default"   validate:"required"`
}

// ArtifactPolicy configures caching behavior for one artifact type.
type ArtifactPolicy struct {
	BaseTTLSeconds int `mapstructure:"base_ttl_seconds" validate:"required,gt=0"`

	// StabilityMultiplier scales the base TTL for artifact types whose
	// content rarely changes (terminology flashcards) versus types that
	// age quickly.
	StabilityMultiplier float64 `mapstructure:"stability_multiplier" validate:"required,gt=0"`
}

// CacheConfig maps artifact types to their cache policies.
type CacheConfig struct {
	Artifacts map[string]ArtifactPolicy `mapstructure:"artifacts" validate:"required,min=1"`
}

// QualityThresholds holds the three independent pass thresholds. A high
// weighted average cannot mask a failure on the pedagogical or factual
// dimension; each threshold is checked on its own.
type QualityThresholds struct {
	MinOverall     float64 `mapstructure:"min_overall"     validate:"required,gt=0,lte=1"`
	MinPedagogical float64 `mapstructure:"min_pedagogical" validate:"required,gt=0,lte=1"`
	MinFactual     float64 `mapstructure:"min_factual"     validate:"required,gt=0,lte=1"`
}

// QualityConfig holds assessment thresholds and per-artifact-type
// dimension weights. Weight maps use the dimension names defined by the
// quality package (structure, readability, pedagogy, engagement,
// factuality); weights for one type should sum to roughly 1.0.
type QualityConfig struct {
	Thresholds QualityThresholds             `mapstructure:"thresholds" validate:"required"`
	Weights    map[string]map[string]float64 `mapstructure:"weights"    validate:"required,min=1"`
}

// ProviderConfig configures one upstream LLM provider. Providers are
// tried in the order they appear in the configuration.
type ProviderConfig struct {
	ID    string `mapstructure:"id"    validate:"required"`
	Kind  string `mapstructure:"kind"  validate:"required,oneof=gemini openai anthropic"`
	Model string `mapstructure:"model" validate:"required"`

	APIKey  string `mapstructure:"api_key" validate:"required"`
	BaseURL string `mapstructure:"base_url"`

	// TimeoutSeconds bounds a single attempt against this provider.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`

	// Per-1000-token prices in USD, used for cost accounting on every
	// attempt, including failed ones.
	PromptCostPer1K     float64 `mapstructure:"prompt_cost_per_1k"     validate:"gte=0"`
	CompletionCostPer1K float64 `mapstructure:"completion_cost_per_1k" validate:"gte=0"`
}

// FailoverConfig controls provider orchestration.
type FailoverConfig struct {
	MaxProvidersTried int `mapstructure:"max_providers_tried" validate:"required,gt=0"`

	// FailureThreshold is the number of consecutive failures after which
	// a provider is skipped for CooldownSeconds.
	FailureThreshold int `mapstructure:"failure_threshold" validate:"required,gt=0"`
	CooldownSeconds  int `mapstructure:"cooldown_seconds"  validate:"required,gt=0"`

	// OrchestrationTimeoutSeconds bounds all attempts for one request
	// combined. Once exceeded, orchestration stops failing over and
	// returns a deadline error.
	OrchestrationTimeoutSeconds int `mapstructure:"orchestration_timeout_seconds" validate:"required,gt=0"`
}

// GenerationConfig controls the regeneration loop.
type GenerationConfig struct {
	// MaxRegenerations is the number of additional generation attempts
	// allowed after a quality rejection before the request is served as
	// a quality failure.
	MaxRegenerations int `mapstructure:"max_regenerations" validate:"gte=0"`
}
