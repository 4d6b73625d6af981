// Package schema holds the static shape of an LLM resume analysis and the
// checks that turn raw model output into a typed models.Analysis.
package schema

const (
	MinRating = 0.0
	MaxRating = 10.0
)

// Extraction is the schema sent with an extraction request.
func Extraction() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"raw_text": map[string]any{"type": "string"},
		},
	}
}

// Analysis is the JSON schema the LLM response must satisfy.
// Record bookkeeping fields (filename, file_url, analysis_status) are not part of it.
func Analysis() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"contact_info": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":      stringProp(),
					"email":     stringProp(),
					"phone":     stringProp(),
					"location":  stringProp(),
					"linkedin":  stringProp(),
					"portfolio": stringProp(),
				},
			},
			"summary": stringProp(),
			"work_experience": arrayOf(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"company":          stringProp(),
					"position":         stringProp(),
					"duration":         stringProp(),
					"location":         stringProp(),
					"responsibilities": arrayOf(stringProp()),
				},
			}),
			"education": arrayOf(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"institution":     stringProp(),
					"degree":          stringProp(),
					"field":           stringProp(),
					"graduation_year": stringProp(),
					"gpa":             stringProp(),
				},
			}),
			"skills":         arrayOf(stringProp()),
			"certifications": arrayOf(stringProp()),
			"projects": arrayOf(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":         stringProp(),
					"description":  stringProp(),
					"technologies": arrayOf(stringProp()),
				},
			}),
			"overall_rating": ratingProp(),
			"category_ratings": map[string]any{
				"type":                 "object",
				"additionalProperties": ratingProp(),
			},
			"improvement_suggestions": arrayOf(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"category":   stringProp(),
					"suggestion": map[string]any{"type": "string", "minLength": 1},
					"priority":   map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
				},
				"required": []string{"suggestion", "priority"},
			}),
			"suggested_skills": arrayOf(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"skill":    map[string]any{"type": "string", "minLength": 1},
					"reason":   stringProp(),
					"category": stringProp(),
				},
				"required": []string{"skill"},
			}),
		},
		"required": []string{"overall_rating", "category_ratings"},
	}
}

func stringProp() map[string]any {
	return map[string]any{"type": "string"}
}

func ratingProp() map[string]any {
	return map[string]any{"type": "number", "minimum": MinRating, "maximum": MaxRating}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}
