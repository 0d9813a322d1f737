package endpoints

import (
	"github.com/jackzampolin/intake/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Extraction endpoint
		&ExtractEndpoint{},

		// Record endpoints
		&ListRecordsEndpoint{},
		&GetRecordEndpoint{},
		&ExportEndpoint{},

		// LLM call history endpoints
		&ListLLMCallsEndpoint{},
		&LLMCallCountsEndpoint{},
		&GetLLMCallEndpoint{},

		// Prompt endpoints
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},

		// Settings endpoints
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},

		// Static files (catch-all, must be last)
		&StaticEndpoint{},
	}
}

// CommandGroups returns the parent CLI commands that group list/get
// subcommands by resource.
func CommandGroups() []api.CommandGroup {
	return []api.CommandGroup{
		{Use: "records", Short: "Patient record operations"},
		{Use: "llmcalls", Short: "LLM call history"},
		{Use: "prompts", Short: "Registered prompt operations"},
		{Use: "settings", Short: "Server configuration"},
	}
}
