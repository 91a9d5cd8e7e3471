package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Question is one quiz prompt drawn for a session
type Question struct {
	ID          string `json:"id"`
	Prompt      string `json:"prompt"`
	Placeholder string `json:"placeholder,omitempty"`
}

// AnswerSet maps question id -> raw free-text answer
type AnswerSet map[string]string

// UnmarshalJSON accepts any JSON object and coerces its values to text.
// Anything other than an object (or null) is rejected.
func (a *AnswerSet) UnmarshalJSON(b []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*a = nil
		return nil
	}
	out := make(AnswerSet, len(raw))
	for k, v := range raw {
		out[k] = TextValue(v)
	}
	*a = out
	return nil
}

// Trimmed returns the answer for id without surrounding whitespace
func (a AnswerSet) Trimmed(id string) string {
	return strings.TrimSpace(a[id])
}

// TextValue turns a decoded JSON value into answer text.
// Falsy values (null, false, 0, "") become the empty string.
func TextValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return ""
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
