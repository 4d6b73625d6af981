package schema

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
)

var allowedKeys = map[string]struct{}{
	"contact_info": {}, "summary": {}, "work_experience": {}, "education": {},
	"skills": {}, "certifications": {}, "projects": {}, "overall_rating": {},
	"category_ratings": {}, "improvement_suggestions": {}, "suggested_skills": {},
}

// StripFences returns the outermost JSON object in s, dropping markdown code
// fences and any prose the model wrapped around it.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}

// Sanitize normalizes what models commonly get slightly wrong so a near miss can still validate:
//   - nulls are dropped
//   - numeric strings in rating fields become numbers
//   - numbers in graduation_year and gpa become strings
//   - priorities and category keys are lowercased
//   - keys outside the analysis shape are removed
//
// Values that are wrong in substance (a rating of 12, a priority of "urgent") are left for the validator to reject.
func Sanitize(raw []byte, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changed []string

	for k := range maps.Clone(m) {
		if _, ok := allowedKeys[k]; !ok {
			delete(m, k)
			changed = append(changed, k+"(unknown)")
		}
	}

	dropNulls(m)

	if v, ok := m["overall_rating"]; ok {
		if f, ok := coerceNumber(v); ok {
			m["overall_rating"] = f
			if _, wasString := v.(string); wasString {
				changed = append(changed, "overall_rating(string)")
			}
		}
	}

	if ratings, ok := m["category_ratings"].(map[string]any); ok {
		normalized := make(map[string]any, len(ratings))
		// keys that only differ by case fold together, the first in sorted order wins
		for _, k := range slices.Sorted(maps.Keys(ratings)) {
			v := ratings[k]
			key := strings.ToLower(strings.TrimSpace(k))
			if key == "" {
				changed = append(changed, "category_ratings(empty key)")
				continue
			}
			if _, dup := normalized[key]; dup {
				changed = append(changed, "category_ratings."+key+"(duplicate "+strconv.Quote(k)+" dropped)")
				continue
			}
			if f, ok := coerceNumber(v); ok {
				normalized[key] = f
				continue
			}
			normalized[key] = v
		}
		m["category_ratings"] = normalized
	}

	for _, item := range objects(m["improvement_suggestions"]) {
		if p, ok := item["priority"].(string); ok {
			item["priority"] = strings.ToLower(strings.TrimSpace(p))
		}
	}

	for _, item := range objects(m["education"]) {
		for _, k := range []string{"graduation_year", "gpa"} {
			if f, ok := item[k].(float64); ok {
				item[k] = strconv.FormatFloat(f, 'f', -1, 64)
				changed = append(changed, "education."+k+"(number)")
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.analysis.sanitize", "changed", changed)
	}
	return out, nil
}

func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func objects(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func dropNulls(m map[string]any) {
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			dropNulls(t)
		case []any:
			m[k] = compact(t)
		}
	}
}

func compact(arr []any) []any {
	out := arr[:0]
	for _, v := range arr {
		switch t := v.(type) {
		case nil:
			continue
		case map[string]any:
			dropNulls(t)
		}
		out = append(out, v)
	}
	return out
}
