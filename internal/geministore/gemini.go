package geministore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "resume-analyzer/internal/errors"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

const extractPrompt = "Return the full plain text of this resume. Keep the reading order and do not summarize."

type GeminiClient struct {
	Client *genai.Client
	Model  string
}

func New(ctx context.Context, apiKey, model string) (*GeminiClient, error) {

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})

	if err != nil {
		return nil, fmt.Errorf("API key error: %w", err)
	}

	if model == "" {
		model = DefaultModel
	}

	return &GeminiClient{Client: client, Model: model}, nil
}

// InvokeLLM asks Gemini for a JSON response to prompt, constrained by responseSchema when given.
func (g *GeminiClient) InvokeLLM(ctx context.Context, prompt string, responseSchema map[string]any) (json.RawMessage, error) {

	contents := genai.Text(prompt)

	result, err := g.Client.Models.GenerateContent(
		ctx,
		g.Model,
		contents,
		jsonConfig(responseSchema),
	)

	if err != nil {
		return nil, classify("analyze resume", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, errors.New("gemini returned an empty response")
	}

	return json.RawMessage(text), nil
}

// ExtractText reads a PDF the local parser could not, e.g. a scanned resume.
func (g *GeminiClient) ExtractText(ctx context.Context, resume []byte) (string, error) {

	contents := []*genai.Content{
		genai.NewContentFromBytes(resume, "application/pdf", genai.RoleUser),
		genai.NewContentFromText(extractPrompt, genai.RoleUser),
	}

	result, err := g.Client.Models.GenerateContent(
		ctx,
		g.Model,
		contents,
		nil,
	)

	if err != nil {
		return "", classify("extract text from resume", err)
	}

	return result.Text(), nil
}

func jsonConfig(responseSchema map[string]any) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if len(responseSchema) > 0 {
		cfg.ResponseJsonSchema = responseSchema
	}
	return cfg
}

// classify marks bad credentials and rejected input as permanent.
func classify(op string, err error) error {
	switch apiErrorCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("gemini authentication failed: %w", apperrors.ErrPermanentFailure)
	case http.StatusBadRequest:
		return fmt.Errorf("gemini invalid input (400) during %s: %w", op, apperrors.ErrPermanentFailure)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func apiErrorCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}
