package sentinel

import "strings"

// DefaultGuidelines is returned when a repository carries no guidelines document.
const DefaultGuidelines = "No specific deployment guidelines provided. Use sensible defaults."

// UserGuidelines are the structured constraints a repository may declare in the
// front-matter of its deployment guidelines.
type UserGuidelines struct {
	Port              *int     `json:"port,omitempty"`
	CloudProvider     string   `json:"cloud_provider"`
	Region            *string  `json:"region,omitempty"`
	DatabaseType      *string  `json:"database_type,omitempty"`
	MinInstances      int      `json:"min_instances"`
	MaxInstances      int      `json:"max_instances"`
	MemoryLimit       string   `json:"memory_limit"`
	CPULimit          string   `json:"cpu_limit"`
	CustomConstraints []string `json:"custom_constraints"`
}

// DefaultUserGuidelines returns the defaults applied when no front-matter is present.
func DefaultUserGuidelines() UserGuidelines {
	return UserGuidelines{
		CloudProvider:     "gcp",
		MinInstances:      0,
		MaxInstances:      10,
		MemoryLimit:       "512Mi",
		CPULimit:          "1",
		CustomConstraints: []string{},
	}
}

// ErrorReport carries the runtime failure handed to diagnosis.
type ErrorReport struct {
	StackTrace   string `json:"stack_trace"`
	ErrorMessage string `json:"error_message"`
	AffectedFile string `json:"affected_file"`
	AffectedLine int    `json:"affected_line"`
}

// ErrorType is the text before the first colon of the message, or "Error".
func (r ErrorReport) ErrorType() string {
	if i := strings.Index(r.ErrorMessage, ":"); i >= 0 {
		if t := strings.TrimSpace(r.ErrorMessage[:i]); t != "" {
			return t
		}
	}
	return "Error"
}
