// Package patient provides the structured complaint types shared across
// extraction, storage, and the HTTP API. It has no dependencies on other
// intake packages to avoid import cycles.
package patient

import "time"

// Info is the structured view of a patient complaint. Scalar fields are
// pointers so an absent value survives round-trips as JSON null rather
// than an empty string.
type Info struct {
	PrimarySymptom     *string  `json:"primary_symptom"`
	Severity           *string  `json:"severity"`
	Duration           *string  `json:"duration"`
	AssociatedSymptoms []string `json:"associated_symptoms"`
	MedicalHistory     []string `json:"medical_history"`
}

// Normalize replaces nil slices with empty ones so the JSON encoding is
// always [] rather than null.
func (i *Info) Normalize() {
	if i.AssociatedSymptoms == nil {
		i.AssociatedSymptoms = []string{}
	}
	if i.MedicalHistory == nil {
		i.MedicalHistory = []string{}
	}
}

// Clone returns a deep copy of the info.
func (i Info) Clone() Info {
	out := Info{
		PrimarySymptom: cloneString(i.PrimarySymptom),
		Severity:       cloneString(i.Severity),
		Duration:       cloneString(i.Duration),
	}
	if i.AssociatedSymptoms != nil {
		out.AssociatedSymptoms = append([]string{}, i.AssociatedSymptoms...)
	}
	if i.MedicalHistory != nil {
		out.MedicalHistory = append([]string{}, i.MedicalHistory...)
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Record is one extraction result held in the session store. IDs are
// assigned sequentially starting at 1 and never reused within a session.
type Record struct {
	ID            int       `json:"id"`
	PatientText   string    `json:"patient_text"`
	ExtractedInfo Info      `json:"extracted_info"`
	CreatedAt     time.Time `json:"created_at"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.ExtractedInfo = r.ExtractedInfo.Clone()
	return out
}
