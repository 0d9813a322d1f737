package config

import (
	"sort"
	"strings"
)

// Entry represents a single configuration entry.
type Entry struct {
	Key         string `json:"key"`
	Value       any    `json:"value"`
	Description string `json:"description"`
}

// redactAPIKey masks literal API key values. ${ENV_VAR} references pass
// through unchanged since they name a variable rather than contain a secret.
func redactAPIKey(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		return value
	}
	return "REDACTED"
}

// Catalog flattens a config into dot-keyed entries with descriptions.
// Providers are sorted by name so the output is stable. Literal API keys
// are redacted, which makes the result safe to serve over HTTP.
func Catalog(cfg *Config) []Entry {
	names := make([]string, 0, len(cfg.LLMProviders))
	for name := range cfg.LLMProviders {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names)*5+11)

	// ===================
	// LLM Providers
	// ===================
	for _, name := range names {
		llm := cfg.LLMProviders[name]
		prefix := "llm_providers." + name
		entries = append(entries,
			Entry{
				Key:         prefix + ".type",
				Value:       llm.Type,
				Description: "LLM provider type",
			},
			Entry{
				Key:         prefix + ".model",
				Value:       llm.Model,
				Description: "Model used for requests",
			},
			Entry{
				Key:         prefix + ".api_key",
				Value:       redactAPIKey(llm.APIKey),
				Description: "API key (literal values are redacted)",
			},
			Entry{
				Key:         prefix + ".rate_limit",
				Value:       llm.RateLimit,
				Description: "Rate limit in requests per minute",
			},
			Entry{
				Key:         prefix + ".enabled",
				Value:       llm.Enabled,
				Description: "Whether the provider is enabled",
			},
		)
	}

	// ===================
	// Extraction
	// ===================
	entries = append(entries,
		Entry{
			Key:         "extraction.provider",
			Value:       cfg.Extraction.Provider,
			Description: "LLM provider used for extraction",
		},
		Entry{
			Key:         "extraction.temperature",
			Value:       cfg.Extraction.Temperature,
			Description: "Sampling temperature for extraction requests",
		},
		Entry{
			Key:         "extraction.max_tokens",
			Value:       cfg.Extraction.MaxTokens,
			Description: "Completion token cap for extraction requests",
		},
		Entry{
			Key:         "extraction.timeout_seconds",
			Value:       cfg.Extraction.TimeoutSeconds,
			Description: "Deadline in seconds for one extraction including retries",
		},
		Entry{
			Key:         "extraction.max_attempts",
			Value:       cfg.Extraction.MaxAttempts,
			Description: "Attempts for transient provider failures",
		},
	)

	// ===================
	// Storage
	// ===================
	entries = append(entries,
		Entry{
			Key:         "storage.data_file",
			Value:       cfg.Storage.DataFile,
			Description: "Patient data file path (empty means the default under the intake home)",
		},
		Entry{
			Key:         "storage.call_log_size",
			Value:       cfg.Storage.CallLogSize,
			Description: "In-memory LLM call log capacity",
		},
	)

	// ===================
	// Server
	// ===================
	entries = append(entries,
		Entry{
			Key:         "server.host",
			Value:       cfg.Server.Host,
			Description: "Address the HTTP server binds to",
		},
		Entry{
			Key:         "server.port",
			Value:       cfg.Server.Port,
			Description: "Port the HTTP server listens on",
		},
	)

	// ===================
	// Logging
	// ===================
	entries = append(entries,
		Entry{
			Key:         "logging.level",
			Value:       cfg.Logging.Level,
			Description: "Log level (debug, info, warn, error)",
		},
		Entry{
			Key:         "logging.format",
			Value:       cfg.Logging.Format,
			Description: "Log format (text, json)",
		},
	)

	return entries
}

// Lookup returns the catalog entry for a key, if present.
func Lookup(cfg *Config, key string) (Entry, bool) {
	for _, entry := range Catalog(cfg) {
		if entry.Key == key {
			return entry, true
		}
	}
	return Entry{}, false
}
