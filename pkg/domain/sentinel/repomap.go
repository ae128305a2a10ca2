// Package sentinel holds the domain model shared by ingestion, planning and
// diagnosis: the repository map, deployment artifacts, fix proposals and the
// audit records that tie them to a reasoning step.
package sentinel

import (
	"fmt"
)

// FileMapping describes one traversed file.
type FileMapping struct {
	Path      string  `json:"path"`
	Language  string  `json:"language"`
	SizeBytes int64   `json:"size_bytes"`
	Purpose   *string `json:"purpose,omitempty"`
}

// DependencyInfo is one declared dependency.
type DependencyInfo struct {
	Name    string  `json:"name"`
	Version *string `json:"version"`
	Source  string  `json:"source"`
}

// RepoMap is the semantic snapshot of a repository.
type RepoMap struct {
	ProjectName     string            `json:"project_name"`
	PrimaryLanguage string            `json:"primary_language"`
	Framework       *string           `json:"framework"`
	EntryPoint      string            `json:"entry_point"`
	DependencyFile  string            `json:"dependency_file"`
	Dependencies    []DependencyInfo  `json:"dependencies"`
	FileMappings    []FileMapping     `json:"file_mappings"`
	TotalFiles      int               `json:"total_files"`
	TotalTokens     int               `json:"total_tokens"`
	LogicFlow       map[string]string `json:"logic_flow"`
	DetectedEnvVars []string          `json:"detected_env_vars"`
	DetectedPorts   []int             `json:"detected_ports"`
}

// Port bounds accepted by detection.
const (
	MinPort = 1024
	MaxPort = 65535
)

// NewRepoMap returns a RepoMap with every collection initialized.
func NewRepoMap(projectName string) *RepoMap {
	return &RepoMap{
		ProjectName:     projectName,
		PrimaryLanguage: "unknown",
		EntryPoint:      "unknown",
		DependencyFile:  "unknown",
		Dependencies:    []DependencyInfo{},
		FileMappings:    []FileMapping{},
		LogicFlow:       map[string]string{},
		DetectedEnvVars: []string{},
		DetectedPorts:   []int{},
	}
}

// FrameworkName returns the framework or "" when none was detected.
func (m *RepoMap) FrameworkName() string {
	if m.Framework == nil {
		return ""
	}
	return *m.Framework
}

// Validate checks that a RepoMap is well-formed.
func (m *RepoMap) Validate() error {
	if m.TotalFiles != len(m.FileMappings) {
		return fmt.Errorf("total_files %d does not match %d file mappings", m.TotalFiles, len(m.FileMappings))
	}
	seen := make(map[string]struct{}, len(m.FileMappings))
	for _, fm := range m.FileMappings {
		if _, dup := seen[fm.Path]; dup {
			return fmt.Errorf("duplicate file mapping %q", fm.Path)
		}
		seen[fm.Path] = struct{}{}
	}
	for _, dep := range m.Dependencies {
		if dep.Name == "" {
			return fmt.Errorf("dependency from %q has an empty name", dep.Source)
		}
	}
	for _, port := range m.DetectedPorts {
		if port < MinPort || port > MaxPort {
			return fmt.Errorf("port %d outside [%d, %d]", port, MinPort, MaxPort)
		}
	}
	return nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
