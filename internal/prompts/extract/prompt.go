// Package extract holds the prompts and output schema for structured
// extraction of patient complaints.
package extract

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/jackzampolin/intake/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// SystemPrompt returns the system prompt for complaint extraction.
func SystemPrompt() string {
	return systemPrompt
}

// UserPromptData contains the data needed to render the user prompt template.
type UserPromptData struct {
	PatientText string
}

// UserPrompt builds the user prompt for complaint extraction.
func UserPrompt(patientText string) string {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, UserPromptData{PatientText: patientText}); err != nil {
		// Fallback to raw template on error
		return userPromptTmpl
	}
	return buf.String()
}

// Prompt keys
const (
	SystemPromptKey = "extract.system"
	UserPromptKey   = "extract.user"
)

// RegisterPrompts registers the extraction prompts with the registry.
func RegisterPrompts(r *prompts.Registry) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Complaint extraction system prompt - pulls symptoms, severity, duration, and history from patient text",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Complaint extraction user prompt template",
	})
}
