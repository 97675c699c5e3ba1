package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is a reference catalog backed by a YAML document:
//
//	references:
//	  - "text one"
//	  - "text two"
type File struct {
	texts []string
}

// Load reads the catalog once; the file is not watched.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc struct {
		References []string `yaml:"references"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	f := &File{}
	for _, t := range doc.References {
		if t = strings.TrimSpace(t); t != "" {
			f.texts = append(f.texts, t)
		}
	}
	return f, nil
}

// References implements similarity.ReferenceSource.
func (f *File) References(_ context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > len(f.texts) {
		limit = len(f.texts)
	}
	return append([]string(nil), f.texts[:limit]...), nil
}
