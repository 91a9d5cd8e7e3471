package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"roastnote/internal/config"
)

// OpenAIClient calls the chat completions endpoint with a strict JSON schema
type OpenAIClient struct {
	config *config.AIConfig
	client *http.Client
}

// NewOpenAIClient creates a new chat completions client. The deadline comes
// from the request context, so the http.Client carries no timeout.
func NewOpenAIClient(cfg *config.AIConfig, client *http.Client) *OpenAIClient {
	if client == nil {
		client = &http.Client{}
	}
	return &OpenAIClient{config: cfg, client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string                 `json:"name"`
			Strict bool                   `json:"strict"`
			Schema map[string]interface{} `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

// Complete makes one chat completions request and returns
// choices[0].message.content, or "" when there is none
func (c *OpenAIClient) Complete(ctx context.Context, p Prompt) (string, error) {
	var reqBody chatRequest
	reqBody.Model = c.config.Model
	reqBody.Messages = []chatMessage{
		{Role: "system", Content: p.System},
		{Role: "user", Content: p.User},
	}
	reqBody.ResponseFormat.Type = "json_schema"
	reqBody.ResponseFormat.JSONSchema.Name = schemaName
	reqBody.ResponseFormat.JSONSchema.Strict = true
	reqBody.ResponseFormat.JSONSchema.Schema = p.Schema

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.ChatCompletionsURL(), bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &SummaryError{
			Kind:    ErrUpstream,
			Message: "OpenAI request failed",
			Details: fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &SummaryError{
			Kind:       ErrMalformedResponse,
			Message:    "Failed to parse OpenAI response.",
			RawContent: string(body),
			Cause:      err,
		}
	}

	if len(chatResp.Choices) == 0 {
		return "", nil
	}
	var content string
	if err := json.Unmarshal(chatResp.Choices[0].Message.Content, &content); err != nil {
		// null, an array of parts or anything else that is not one string
		return "", nil
	}
	return content, nil
}
