package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Query is the base marketplace filter applied to every listing type.
type Query struct {
	GPUNames         []string `yaml:"gpu_names"`
	MinDiskSpace     float64  `yaml:"min_disk_space"`
	AllocatedStorage float64  `yaml:"allocated_storage"`
	MinDuration      int      `yaml:"min_duration"`
	Rentable         bool     `yaml:"rentable"`
	Verified         bool     `yaml:"verified"`
	MinReliability   float64  `yaml:"min_reliability"`
	Limit            int      `yaml:"limit"`
	ResourceType     string   `yaml:"resource_type"`
}

// DefaultQuery returns the filter used when no QUERY_FILE is configured.
func DefaultQuery() Query {
	return Query{
		GPUNames:         []string{"RTX 5090"},
		MinDiskSpace:     8,
		AllocatedStorage: 8,
		MinDuration:      21600,
		Rentable:         true,
		Verified:         true,
		MinReliability:   0.9,
		Limit:            512,
		ResourceType:     "gpu",
	}
}

// LoadQuery reads a YAML filter file. Keys missing from the file keep their
// default values.
func LoadQuery(path string) (Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Query{}, fmt.Errorf("config: read query file: %w", err)
	}

	q := DefaultQuery()
	if err := yaml.Unmarshal(data, &q); err != nil {
		return Query{}, fmt.Errorf("config: parse query file %q: %w", path, err)
	}
	if len(q.GPUNames) == 0 {
		return Query{}, fmt.Errorf("config: query file %q lists no gpu_names", path)
	}
	return q, nil
}
