package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"resume-analyzer/internal/models"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compile(Analysis())
})

func compile(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analysis.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile("analysis.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
}

// Validate checks data against the analysis schema.
func Validate(data []byte) error {
	s, err := compiled()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// Decode turns raw model output into a typed analysis.
// Anything that is not a JSON object matching the schema after sanitizing is an error.
func Decode(raw []byte, logger *slog.Logger) (*models.Analysis, error) {
	body := StripFences(string(raw))
	if body == "" {
		return nil, fmt.Errorf("empty model response")
	}

	clean, err := Sanitize([]byte(body), logger)
	if err != nil {
		return nil, err
	}

	if err := Validate(clean); err != nil {
		return nil, err
	}

	var a models.Analysis
	if err := json.Unmarshal(clean, &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if a.CategoryRatings == nil {
		a.CategoryRatings = map[string]float64{}
	}
	return &a, nil
}
