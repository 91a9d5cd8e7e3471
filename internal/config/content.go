package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"roastnote/internal/model"
)

// Content is the prompt material loaded once at startup and shared read-only
type Content struct {
	StyleGuide string
	Insiders   []model.Insider
}

// LoadContent reads the style guide and the insiders document. Missing files
// give empty content; a document that is not a list gives no insiders.
func LoadContent(styleGuidePath, insidersPath string) (*Content, error) {
	styleGuide, err := readOptional(styleGuidePath)
	if err != nil {
		return nil, fmt.Errorf("read style guide: %w", err)
	}

	raw, err := readOptional(insidersPath)
	if err != nil {
		return nil, fmt.Errorf("read insiders: %w", err)
	}
	insiders, err := ParseInsiders([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parse insiders %s: %w", insidersPath, err)
	}

	return &Content{StyleGuide: styleGuide, Insiders: insiders}, nil
}

// ParseInsiders decodes a JSON or YAML insiders list and fills defaults.
// A document that is not a list yields no insiders.
func ParseInsiders(data []byte) ([]model.Insider, error) {
	var items []interface{}

	if json.Valid(data) {
		var v interface{}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		items, _ = v.([]interface{})
	} else {
		// not JSON, try YAML
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.SequenceNode {
			return []model.Insider{}, nil
		}
		if err := doc.Content[0].Decode(&items); err != nil {
			return nil, err
		}
	}

	insiders := make([]model.Insider, 0, len(items))
	for _, item := range items {
		insiders = append(insiders, model.InsiderFromValue(item))
	}
	return insiders, nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}
