package models

// FieldKind classifies how a submitted form value is interpreted.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindTextarea    FieldKind = "textarea"
	KindNumber      FieldKind = "number"
	KindDate        FieldKind = "date"
	KindCheckbox    FieldKind = "checkbox"
	KindMultiSelect FieldKind = "multi-select"
	KindRadio       FieldKind = "radio"
	KindSelect      FieldKind = "select"
)

// FieldSpec describes one logical form field. The schema replaces the old
// practice of discovering fields by scanning markup attributes, so the
// collector and mapper can be exercised without any DOM.
type FieldSpec struct {
	Key      string    `json:"key"`
	Kind     FieldKind `json:"kind"`
	Group    string    `json:"group,omitempty"` // multi-select group name, when Kind is multi-select
	Required bool      `json:"required,omitempty"`
}

// Canonical record keys used across the collector, mapper, and coordinator.
const (
	KeyProjectName = "project-name"
	KeyJobTitle    = "job-title" // canonical title, mirrored from project name
	KeyDescription = "description"
	KeyBudget      = "budget"
	KeyJobOnline   = "job-online-date"
	KeyCategory    = "category"
	KeyLanguages   = "languages"
	KeyCountries   = "countries"
	KeyRemote      = "remote"
	KeyPremium     = "premium"
	KeyMemberRef   = "member-ref"
	KeyCompany     = "company"
	KeyContact     = "contact-email"
)

// RawFormRecord is the flat key-value snapshot of one submit attempt.
// Values are strings, bools, float64s, or []string for multi-select groups.
type RawFormRecord map[string]interface{}

// String returns the string value for key, or "" when absent or not a string.
func (r RawFormRecord) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Strings returns the multi-select values for key.
func (r RawFormRecord) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// Float returns the numeric value for key and whether it was present.
func (r RawFormRecord) Float(key string) (float64, bool) {
	v, ok := r[key].(float64)
	return v, ok
}

// Bool returns the checkbox value for key; absent means false.
func (r RawFormRecord) Bool(key string) bool {
	v, _ := r[key].(bool)
	return v
}

// Has reports whether key carries any value.
func (r RawFormRecord) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Keys returns all keys present in the record.
func (r RawFormRecord) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}

// ServicePayload is the per-destination-service shaped and ID-mapped form of
// the submitted data.
type ServicePayload map[string]interface{}
