package extract

import (
	"encoding/json"

	"github.com/jackzampolin/intake/internal/patient"
	"github.com/jackzampolin/intake/internal/providers"
)

// Messages builds the chat messages for extracting a patient complaint.
func Messages(patientText string) []providers.Message {
	return []providers.Message{
		{Role: "system", Content: SystemPrompt()},
		{Role: "user", Content: UserPrompt(patientText)},
	}
}

// ResponseFormat builds the structured output format for extraction requests.
func ResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(ExtractionSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}

// ParseResult parses validated LLM output into patient info. Nil slices
// are normalized to empty so downstream JSON always carries [].
func ParseResult(parsedJSON any) (*patient.Info, error) {
	jsonBytes, err := json.Marshal(parsedJSON)
	if err != nil {
		return nil, err
	}
	var info patient.Info
	if err := json.Unmarshal(jsonBytes, &info); err != nil {
		return nil, err
	}
	info.Normalize()
	return &info, nil
}
