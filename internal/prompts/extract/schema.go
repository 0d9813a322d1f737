package extract

// ExtractionSchema is the JSON schema for complaint extraction output.
// All fields are required; a field the patient never mentions comes back
// as null (strings) or [] (arrays).
var ExtractionSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "patient_info",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"primary_symptom": map[string]any{
					"type":        []string{"string", "null"},
					"description": "The main symptom reported by the patient",
				},
				"severity": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Severity of the primary symptom (e.g., mild, moderate, severe)",
				},
				"duration": map[string]any{
					"type":        []string{"string", "null"},
					"description": "Duration of the primary symptom",
				},
				"associated_symptoms": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Other symptoms reported by the patient",
				},
				"medical_history": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Relevant medical history mentioned by the patient",
				},
			},
			"required": []string{
				"primary_symptom", "severity", "duration",
				"associated_symptoms", "medical_history",
			},
			"additionalProperties": false,
		},
	},
}
