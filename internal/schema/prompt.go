package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

const analysisInstructions = `Analyze the following resume text and extract structured information.
Return a single JSON object that satisfies this JSON schema:

%s

Rate each category out of 10 and give an overall rating between 0 and 10.
Suggestion priority must be one of "high", "medium" or "low".
Provide thoughtful analysis and actionable recommendations. Respond with JSON only.

Resume text to analyze:
%s
`

// BuildPrompt embeds the resume text and the full analysis schema in the instruction sent to the LLM.
func BuildPrompt(rawText string) (string, error) {
	b, err := json.MarshalIndent(Analysis(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analysis schema: %w", err)
	}
	return fmt.Sprintf(analysisInstructions, b, strings.TrimSpace(rawText)), nil
}
