// Package config provides 12-factor configuration for the headless client.
//
// Values start from Default, are optionally overlaid by a YAML or TOML file,
// and are finally overridden by environment variables.
//
// Configuration Sections:
//   - Cookies: strict or lenient domain and path acceptance
//   - Forms: parameter validation and request charset
//   - Conversation: redirects, strict status handling, User-Agent
//   - Transport: timeout, rate limit, circuit breaker
//   - Logging: level, format and optional rotating file
//   - Store: cookie database location
//
// Example Usage:
//
//	cfg, err := config.LoadFile("headless.yaml")
//	if err != nil {
//		cfg = config.LoadOrDefault()
//	}
//
// Environment Variables:
//   - COOKIE_STRICT_DOMAIN, COOKIE_STRICT_PATH
//   - FORM_VALIDATE, FORM_EDITABLE_HIDDEN, FORM_CHARSET, FORM_POST_CHARSET
//   - MAX_REDIRECTS, FOLLOW_REDIRECTS, STRICT_STATUS, USER_AGENT
//   - HTTP_TIMEOUT, RATE_LIMIT_RPS, RATE_LIMIT_BURST, HTTP_INSECURE
//   - BREAKER_FAILURES, BREAKER_TIMEOUT
//   - LOG_LEVEL, LOG_DEV, LOG_FILE, COOKIE_DB
package config
