// Package project reads and writes project files and keeps the store in
// sync with them.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"evalgo.org/bffgate/models"
)

// Format is the encoding of a project file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf derives the format from the file extension. Unknown extensions
// are treated as YAML, which also accepts JSON documents.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use yaml or json)", s)
	}
}

// Load reads a project file.
func Load(path string) (*models.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	p, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return p, nil
}

// Decode parses a project document. Missing collections are normalized to
// empty slices and a missing security section gets the defaults.
func Decode(data []byte, format Format) (*models.Project, error) {
	p := models.NewProject("")

	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, p)
	default:
		err = yaml.Unmarshal(data, p)
	}
	if err != nil {
		return nil, err
	}

	normalize(p)
	return p, nil
}

func normalize(p *models.Project) {
	if p.PublicEndpoints == nil {
		p.PublicEndpoints = []models.Endpoint{}
	}
	if p.UpstreamApis == nil {
		p.UpstreamApis = []models.UpstreamApi{}
	}
	if p.ResponseMappings == nil {
		p.ResponseMappings = []models.ResponseMapping{}
	}
	if p.RequestMappings == nil {
		p.RequestMappings = []models.RequestMapping{}
	}
	if p.SecurityConfig.TokenExpirationSeconds == 0 {
		p.SecurityConfig.TokenExpirationSeconds = models.DefaultTokenExpirationSeconds
	}
	if p.SecurityConfig.ClaimsMapping == nil {
		p.SecurityConfig.ClaimsMapping = []models.ClaimMapping{}
	}
}

// Encode serializes a project.
func Encode(p *models.Project, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return yaml.Marshal(p)
	}
}

// Save writes p to path, replacing the file atomically.
func Save(path string, p *models.Project) error {
	data, err := Encode(p, FormatOf(path))
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".project-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace project file: %w", err)
	}
	return nil
}
