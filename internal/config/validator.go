package config

import (
	"net"
	"net/url"
	"strings"
)

// Valid logging levels.
var validLogLevels = map[string]bool{
	"":         true, // Empty defaults to info
	LevelDebug: true,
	LevelInfo:  true,
	LevelWarn:  true,
	LevelError: true,
}

// Valid logging formats.
var validLogFormats = map[string]bool{
	"":        true, // Empty defaults to json
	"json":    true,
	"console": true,
	"text":    true, // Alias for console
	"pretty":  true,
}

// Validate checks the configuration for errors.
// Returns a ValidationError containing all errors found, or nil if valid.
func (c *Config) Validate() error {
	errs := &ValidationError{}

	validateBackend(c, errs)
	validateCookies(c, errs)
	validateServer(c, errs)
	validateLogging(c, errs)
	validateHealth(c, errs)
	validateCache(c, errs)
	validateTracing(c, errs)

	return errs.ToError()
}

func validateBackend(c *Config, errs *ValidationError) {
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		switch {
		case err != nil:
			errs.Addf("backend.base_url", "is invalid: %v", err)
		case u.Scheme != "http" && u.Scheme != "https":
			errs.Addf("backend.base_url", "must use http or https (got %q)", c.Backend.BaseURL)
		case u.Host == "":
			errs.Addf("backend.base_url", "must include a host (got %q)", c.Backend.BaseURL)
		}
	}

	if c.Backend.TimeoutMS < 0 {
		errs.Add("backend.timeout_ms", "must be >= 0")
	}
}

// validateCookies rejects names that cannot appear in a Cookie header.
func validateCookies(c *Config, errs *ValidationError) {
	fields := map[string]string{
		"cookies.session_name": c.Cookies.SessionName,
		"cookies.csrf_name":    c.Cookies.CSRFName,
		"cookies.csrf_header":  c.Cookies.CSRFHeader,
	}
	for _, field := range []string{"cookies.session_name", "cookies.csrf_name", "cookies.csrf_header"} {
		if strings.ContainsAny(fields[field], " \t\r\n;=,\"") {
			errs.Addf(field, "contains invalid characters (got %q)", fields[field])
		}
	}

	names := c.Cookies.Names()
	if names.Session == names.CSRF {
		errs.Addf("cookies.csrf_name", "must differ from cookies.session_name (both %q)", names.Session)
	}
}

func validateServer(c *Config, errs *ValidationError) {
	if c.Server.LoginRateLimit.PerMinute < 0 {
		errs.Add("server.login_rate_limit.per_minute", "must be >= 0")
	}
	if c.Server.LoginRateLimit.Burst < 0 {
		errs.Add("server.login_rate_limit.burst", "must be >= 0")
	}

	if c.Server.Listen == "" {
		return
	}

	host, port, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs.Addf("server.listen", "must be in host:port format (got %q)", c.Server.Listen)
		return
	}
	if host != "" && net.ParseIP(host) == nil && strings.ContainsAny(host, " \t\n") {
		errs.Add("server.listen", "host contains invalid characters")
	}
	if port == "" {
		errs.Add("server.listen", "port is required")
	}
}

func validateLogging(c *Config, errs *ValidationError) {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs.Addf("logging.level", "is invalid (got %q, valid: debug, info, warn, error)",
			c.Logging.Level)
	}

	if !validLogFormats[c.Logging.Format] {
		errs.Addf("logging.format", "is invalid (got %q, valid: json, console, text, pretty)",
			c.Logging.Format)
	}
}

func validateHealth(c *Config, errs *ValidationError) {
	cb := c.Health.CircuitBreaker
	if cb.FailureThreshold < 0 {
		errs.Add("health.circuit_breaker.failure_threshold", "must be >= 0")
	}
	if cb.OpenDurationMS < 0 {
		errs.Add("health.circuit_breaker.open_duration_ms", "must be >= 0")
	}
	if cb.HalfOpenRequests < 0 {
		errs.Add("health.circuit_breaker.half_open_requests", "must be >= 0")
	}
}

func validateCache(c *Config, errs *ValidationError) {
	if c.Cache.TTLMS < 0 {
		errs.Add("cache.ttl_ms", "must be >= 0")
	}
	if c.Cache.MaxEntries < 0 {
		errs.Add("cache.max_entries", "must be >= 0")
	}
}

func validateTracing(c *Config, errs *ValidationError) {
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		errs.Addf("tracing.sample_ratio", "must be between 0 and 1 (got %v)", r)
	}
}
