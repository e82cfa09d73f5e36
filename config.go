package sentries

import (
	"fmt"
	"os"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	json "github.com/goccy/go-json"
)

// Sentry kind names, used both in configuration files and as the Kind
// component of identities built from them.
const (
	KindCircuitBreaker = "circuit_breaker"
	KindRateLimiter    = "rate_limiter"
	KindBulkhead       = "bulkhead"
	KindDuration       = "duration"
)

type (
	// configFile is the top-level JSON structure: resource name → definition.
	configFile struct {
		Sentries map[string]SentryConfig `json:"sentries"`
	}

	// SentryConfig holds the decoded definition of a single sentry. Export
	// it to embed in your own app config structs, then call [BuildSentry]
	// to construct the sentry it describes.
	SentryConfig struct {
		// Kind selects the sentry kind.
		// Required. One of: "circuit_breaker", "rate_limiter",
		// "bulkhead", "duration".
		Kind string `json:"kind"`
		// CircuitBreaker configures a circuit breaker sentry.
		// Optional. Example: {"failure_threshold": 5}.
		CircuitBreaker *BreakerConfig `json:"circuit_breaker,omitempty"`
		// RateLimit is the maximum calls per second for a rate limiter
		// sentry. Required for kind "rate_limiter". Example: 100.
		RateLimit *float64 `json:"rate_limit,omitempty"`
		// Bulkhead is the maximum concurrent calls for a bulkhead sentry.
		// Required for kind "bulkhead". Example: 10.
		Bulkhead *int `json:"bulkhead,omitempty"`
	}

	// BreakerConfig holds circuit breaker configuration values.
	BreakerConfig struct {
		// RecoveryTimeout is the duration the breaker stays open.
		// Optional. Parsed via time.ParseDuration. Example: "30s".
		RecoveryTimeout *string `json:"recovery_timeout,omitempty"`
		// FailureThreshold is the number of failures before opening.
		// Optional. Example: 5.
		FailureThreshold *int `json:"failure_threshold,omitempty"`
		// HalfOpenMaxAttempts is the max probes in half-open state.
		// Optional. Example: 2.
		HalfOpenMaxAttempts *int `json:"half_open_max_attempts,omitempty"`
	}

	// ConfigSet is a validated set of sentry definitions keyed by resource
	// name, ready to be applied to a registry.
	ConfigSet struct {
		sentries map[string]SentryConfig
	}
)

// Validate checks the definition for structural errors: unknown kind,
// missing kind-specific knobs, unparsable durations.
func (c SentryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Kind,
			validation.Required,
			validation.In(KindCircuitBreaker, KindRateLimiter, KindBulkhead, KindDuration),
		),
		validation.Field(&c.RateLimit,
			validation.When(c.Kind == KindRateLimiter, validation.Required),
			validation.Min(0.0).Exclusive(),
		),
		validation.Field(&c.Bulkhead,
			validation.When(c.Kind == KindBulkhead, validation.Required),
			validation.Min(1),
		),
		validation.Field(&c.CircuitBreaker),
	)
}

// Validate checks breaker knobs for structural errors.
func (c BreakerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.RecoveryTimeout, validation.By(validDuration)),
		validation.Field(&c.FailureThreshold, validation.Min(1)),
		validation.Field(&c.HalfOpenMaxAttempts, validation.Min(1)),
	)
}

func validDuration(value any) error {
	s, ok := value.(string)
	if !ok {
		return nil
	}

	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	return nil
}

// LoadConfig reads a JSON configuration file mapping resource names to
// sentry definitions. All definitions are validated eagerly so errors
// surface at load time, before any sentry is constructed.
func LoadConfig(path string) (*ConfigSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sentries: read config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes and validates raw JSON configuration.
func ParseConfig(data []byte) (*ConfigSet, error) {
	var cfg configFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("sentries: parse config: %w", err)
	}

	for name, sc := range cfg.Sentries {
		if err := sc.Validate(); err != nil {
			return nil, NewResourceError(name, err)
		}
	}

	return &ConfigSet{sentries: cfg.Sentries}, nil
}

// Resources returns the configured resource names in sorted order.
func (cs *ConfigSet) Resources() []string {
	names := make([]string, 0, len(cs.sentries))
	for name := range cs.sentries {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Apply builds every configured sentry and installs it in reg under
// (scope, resource name, kind), returning the live sentry per resource.
// Registration follows [Registry.GetOrAdd] semantics: a definition whose
// identity is already live yields the existing sentry, and the freshly
// built candidate is discarded through the loser path.
func (cs *ConfigSet) Apply(reg *Registry, scope string) (map[string]Sentry, error) {
	live := make(map[string]Sentry, len(cs.sentries))

	for _, name := range cs.Resources() {
		sc := cs.sentries[name]

		s, err := BuildSentry(name, sc)
		if err != nil {
			return nil, err
		}

		live[name] = reg.GetOrAdd(s, NewIdentity(scope, name, sc.Kind))
	}

	return live, nil
}

// BuildSentry constructs the sentry described by cfg for resource. Failures
// are reported as a [ResourceError] carrying the resource name and cause.
func BuildSentry(resource string, cfg SentryConfig) (Sentry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, NewResourceError(resource, err)
	}

	switch cfg.Kind {
	case KindCircuitBreaker:
		opts, err := breakerOptions(cfg.CircuitBreaker)
		if err != nil {
			return nil, NewResourceError(resource, err)
		}

		return NewCircuitBreakerSentry(resource, opts...), nil

	case KindRateLimiter:
		return NewRateLimiterSentry(resource, *cfg.RateLimit), nil

	case KindBulkhead:
		return NewBulkheadSentry(resource, *cfg.Bulkhead), nil

	default: // KindDuration — Validate rejected everything else.
		return NewDurationSentry(resource), nil
	}
}

func breakerOptions(cfg *BreakerConfig) ([]CircuitBreakerOption, error) {
	if cfg == nil {
		return nil, nil
	}

	var opts []CircuitBreakerOption

	if cfg.FailureThreshold != nil {
		opts = append(opts, FailureThreshold(*cfg.FailureThreshold))
	}

	if cfg.HalfOpenMaxAttempts != nil {
		opts = append(opts, HalfOpenMaxAttempts(*cfg.HalfOpenMaxAttempts))
	}

	if cfg.RecoveryTimeout != nil {
		d, err := time.ParseDuration(*cfg.RecoveryTimeout)
		if err != nil {
			return nil, fmt.Errorf("recovery_timeout: %w", err)
		}

		opts = append(opts, RecoveryTimeout(d))
	}

	return opts, nil
}
