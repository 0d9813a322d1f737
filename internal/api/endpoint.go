package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint defines both an HTTP route and its corresponding CLI command.
// This provides a single source of truth for API operations.
type Endpoint interface {
	// Route returns the HTTP method, path, and handler for this endpoint.
	Route() (method, path string, handler http.HandlerFunc)

	// RequiresLLM returns true if this endpoint needs a configured
	// LLM provider to do its work.
	RequiresLLM() bool

	// CommandGroup returns the parent CLI command this endpoint's command
	// nests under, or "" for a top-level command. Grouping keeps list/get
	// subcommands for different resources from colliding.
	CommandGroup() string

	// Command returns a Cobra command that calls this endpoint via HTTP.
	// getServerURL is called at runtime to get the server URL (deferred evaluation).
	// A nil command means the endpoint has no CLI surface.
	Command(getServerURL func() string) *cobra.Command
}
