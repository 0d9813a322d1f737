package config

// Config holds intake configuration.
// Stored at: $HOME/.intake/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Extraction   ExtractionCfg             `mapstructure:"extraction" yaml:"extraction"`
	Storage      StorageCfg                `mapstructure:"storage" yaml:"storage"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	Logging      LoggingCfg                `mapstructure:"logging" yaml:"logging"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string `mapstructure:"type" yaml:"type"`             // "gemini", "openai"
	Model     string `mapstructure:"model" yaml:"model"`           // Model name
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
}

// ExtractionCfg controls structured extraction from patient complaints.
type ExtractionCfg struct {
	Provider       string  `mapstructure:"provider" yaml:"provider"`               // LLM provider used for extraction
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`         // Sampling temperature
	MaxTokens      int     `mapstructure:"max_tokens" yaml:"max_tokens"`           // Completion token cap
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // Deadline for one extraction including retries
	MaxAttempts    int     `mapstructure:"max_attempts" yaml:"max_attempts"`       // Attempts for transient provider failures
}

// StorageCfg controls patient record persistence.
type StorageCfg struct {
	// DataFile overrides the patient data file path.
	// Empty means $HOME/.intake/data/all_patients_data.json.
	DataFile string `mapstructure:"data_file" yaml:"data_file"`
	// CallLogSize caps the in-memory LLM call log (default: 1000)
	CallLogSize int `mapstructure:"call_log_size" yaml:"call_log_size"`
}

// ServerCfg holds HTTP server settings.
type ServerCfg struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string `mapstructure:"host" yaml:"host"`
	// Port is the port to listen on (default: 8080)
	Port string `mapstructure:"port" yaml:"port"`
}

// LoggingCfg controls log output.
type LoggingCfg struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"gemini": {
				Type:      "gemini",
				Model:     "gemini-2.5-flash",
				APIKey:    "${GEMINI_API_KEY}",
				RateLimit: 15,
				Enabled:   true,
			},
			"openai": {
				Type:      "openai",
				Model:     "gpt-4o-mini",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 60,
				Enabled:   true,
			},
		},
		Extraction: ExtractionCfg{
			Provider:       "gemini",
			Temperature:    0.1,
			MaxTokens:      1024,
			TimeoutSeconds: 60,
			MaxAttempts:    3,
		},
		Storage: StorageCfg{
			CallLogSize: 1000,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Logging: LoggingCfg{
			Level:  "info",
			Format: "text",
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}
