package llm

import (
	"context"
	"encoding/json"
)

// Invoker sends a prompt to a language model and returns the JSON object it produced.
// The response is not checked against responseSchema; callers validate it.
type Invoker interface {
	InvokeLLM(ctx context.Context, prompt string, responseSchema map[string]any) (json.RawMessage, error)
}

// TextExtractor reads the text out of a document a plain parser could not handle, such as a scanned PDF.
type TextExtractor interface {
	ExtractText(ctx context.Context, document []byte) (string, error)
}
