package universe

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the symbol universe document handed over by the prediction
// pipeline: the set of instruments it intends to score this cycle.
type File struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Symbols     []string `yaml:"symbols"`
}

// Load reads a universe yaml file. Symbols are upper-cased; duplicates are
// tolerated here and collapsed by the pipeline.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	var uf File
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return nil, fmt.Errorf("parse universe yaml: %w", err)
	}
	if len(uf.Symbols) == 0 {
		return nil, fmt.Errorf("universe %s contains no symbols", path)
	}

	for i, s := range uf.Symbols {
		uf.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return &uf, nil
}
