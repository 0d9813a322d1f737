package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// llmMiddleware wraps handlers that require a configured LLM provider.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, llmMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresLLM() {
			handler = llmMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// CommandGroup describes a parent command that groups the CLI commands of
// one resource's endpoints.
type CommandGroup struct {
	Use   string
	Short string
}

// BuildCommands returns a cobra.Command tree for all registered endpoints.
// Endpoints whose CommandGroup matches one of the given groups nest under
// that group's parent command; the rest sit directly under "api".
// getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string, groups ...CommandGroup) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running intake server via HTTP.

These commands require a running server (intake serve).
Use --server to specify a custom server URL.

Examples:
  intake api health                       # Check server health
  intake api extract "I have a headache"  # Extract a patient complaint
  intake api records list                 # List extracted records`,
	}

	parents := make(map[string]*cobra.Command, len(groups))
	for _, g := range groups {
		parent := &cobra.Command{Use: g.Use, Short: g.Short}
		parents[g.Use] = parent
		apiCmd.AddCommand(parent)
	}

	for _, ep := range r.endpoints {
		cmd := ep.Command(getServerURL)
		if cmd == nil {
			continue
		}
		if parent, ok := parents[ep.CommandGroup()]; ok {
			parent.AddCommand(cmd)
			continue
		}
		apiCmd.AddCommand(cmd)
	}

	return apiCmd
}
