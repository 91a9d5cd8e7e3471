package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"roastnote/internal/config"
)

// GeminiClient produces summaries through the Gemini SDK
type GeminiClient struct {
	config *config.AIConfig
	opts   []option.ClientOption
}

// NewGeminiClient creates a new Gemini provider. Extra options are appended
// after the API key.
func NewGeminiClient(cfg *config.AIConfig, opts ...option.ClientOption) *GeminiClient {
	return &GeminiClient{config: cfg, opts: opts}
}

// Complete asks the configured model for one JSON reply
func (g *GeminiClient) Complete(ctx context.Context, p Prompt) (string, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(g.config.APIKey)}, g.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(strings.TrimSpace(g.config.Model))
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiSchema(p.Schema),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(p.System)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return firstText(resp), nil
}

func classifyGeminiError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &SummaryError{Kind: ErrEmptyResponse, Message: "No content in Gemini response.", Details: blocked.Error(), Cause: err}
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		details := apiErr.Error()
		if code := apiErr.HTTPCode(); code > 0 {
			details = fmt.Sprintf("status %d: %s", code, details)
		}
		return &SummaryError{Kind: ErrUpstream, Message: "Gemini request failed", Details: details, Cause: err}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &SummaryError{
			Kind:    ErrUpstream,
			Message: "Gemini request failed",
			Details: fmt.Sprintf("status %d: %s", gErr.Code, gErr.Message),
			Cause:   err,
		}
	}
	return err
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}

// geminiSchema converts the JSON schema map into the SDK's schema type.
// Array bounds are not expressible there and are enforced on the reply.
func geminiSchema(s map[string]interface{}) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{}
	switch s["type"] {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	}
	if props, ok := s["properties"].(map[string]interface{}); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if sub, ok := v.(map[string]interface{}); ok {
				out.Properties[name] = geminiSchema(sub)
			}
		}
	}
	if items, ok := s["items"].(map[string]interface{}); ok {
		out.Items = geminiSchema(items)
	}
	if req, ok := s["required"].([]string); ok {
		out.Required = append([]string(nil), req...)
	}
	return out
}
