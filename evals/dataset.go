// Package evals replays a fixed question set through the research flow and
// scores each answer with the judge flow.
package evals

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TestCase is one entry of the persisted evaluation dataset. The dataset is
// loaded once per run and immutable afterwards; case order is preserved.
type TestCase struct {
	ID            string   `json:"id" yaml:"id" validate:"required"`
	Question      string   `json:"question" yaml:"question" validate:"required"`
	ExpectedFacts []string `json:"expected_facts" yaml:"expected_facts" validate:"required,min=1,dive,required"`
}

var validate = validator.New()

// LoadDataset reads an ordered test-case list from a JSON or YAML file and
// validates every case.
func LoadDataset(path string) ([]TestCase, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cases []TestCase
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(bs, &cases); err != nil {
			return nil, fmt.Errorf("parse dataset %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(bs, &cases); err != nil {
			return nil, fmt.Errorf("parse dataset %s: %w", path, err)
		}
	}
	seen := make(map[string]struct{}, len(cases))
	for i, tc := range cases {
		if err := validate.Struct(&tc); err != nil {
			return nil, fmt.Errorf("invalid test case %d (%s): %w", i, tc.ID, err)
		}
		if _, ok := seen[tc.ID]; ok {
			return nil, fmt.Errorf("duplicate test case id %q", tc.ID)
		}
		seen[tc.ID] = struct{}{}
	}
	return cases, nil
}
