package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"roastnote/internal/model"
)

const (
	schemaName   = "valentine_summary"
	systemPrompt = "You are a warm, poetic assistant who writes affectionate, respectful summaries."
)

// Prompt is everything a provider needs to produce one summary
type Prompt struct {
	System string
	User   string
	Schema map[string]interface{}
}

// summaryFields lists the required reply fields in schema order
var summaryFields = []string{"roast_note", "spirit_emoji", "spirit_line", "footer_line", "callbacks_used"}

// OutputSchema returns the strict JSON schema of SummaryResult
func OutputSchema() map[string]interface{} {
	str := map[string]interface{}{"type": "string"}
	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"roast_note":   str,
			"spirit_emoji": str,
			"spirit_line":  str,
			"footer_line":  str,
			"callbacks_used": map[string]interface{}{
				"type":     "array",
				"items":    str,
				"minItems": 0,
				"maxItems": model.MaxCallbacks,
			},
		},
		"required": summaryFields,
	}
}

// BuildPrompt renders the system and user messages for req
func BuildPrompt(req *model.SummarizeRequest) (Prompt, error) {
	insiders, err := indentJSON(req.Insiders)
	if err != nil {
		return Prompt{}, fmt.Errorf("marshal insiders: %w", err)
	}
	answers, err := indentJSON(req.Answers)
	if err != nil {
		return Prompt{}, fmt.Errorf("marshal answers: %w", err)
	}

	styleGuide := req.StyleGuide
	if styleGuide == "" {
		styleGuide = "(Missing style guide file.)"
	}

	user := strings.Join([]string{
		"You are writing a playful, teasing love note.",
		"Follow the style guide below exactly.",
		"",
		"Style Guide:",
		styleGuide,
		"",
		"Insiders are provided as objects with raw, normalized, tags, intensity.",
		"Use normalized text to help with POV, and paraphrase in the output.",
		"Avoid spicy insiders unless they naturally fit the tone.",
		"",
		"Use answer_normalized as the source of truth for pronouns and POV.",
		"Fix minor grammar/typos from the input naturally.",
		"Return JSON that matches the schema.",
		"",
		"Nickname to address (optional): " + req.Nickname,
		"Insiders (optional):",
		insiders,
		"Answers:",
		answers,
	}, "\n")

	return Prompt{System: systemPrompt, User: user, Schema: OutputSchema()}, nil
}

// indentJSON pretty-prints v without escaping <, > and &
func indentJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
