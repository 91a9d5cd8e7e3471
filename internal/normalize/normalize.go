// Package normalize rewrites first-person answers into third person so the
// summary model narrates from one point of view.
package normalize

import "regexp"

// Rule is one whole-word, case-insensitive substitution.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// rules run in order. Contractions must stay ahead of the bare "I" rule,
// otherwise "I'll" would become "she'll" before its own rule sees it.
var rules = []Rule{
	{Name: "i-have", Pattern: regexp.MustCompile(`(?i)\bI['’]ve\b`), Replacement: "she has"},
	{Name: "i-would", Pattern: regexp.MustCompile(`(?i)\bI['’]d\b`), Replacement: "she would"},
	{Name: "i-will", Pattern: regexp.MustCompile(`(?i)\bI['’]ll\b`), Replacement: "she will"},
	{Name: "i-am-contracted", Pattern: regexp.MustCompile(`(?i)\bI['’]m\b`), Replacement: "she's"},
	{Name: "i-am", Pattern: regexp.MustCompile(`(?i)\bI am\b`), Replacement: "she is"},
	{Name: "i", Pattern: regexp.MustCompile(`(?i)\bI\b`), Replacement: "she"},
	{Name: "me", Pattern: regexp.MustCompile(`(?i)\bme\b`), Replacement: "her"},
	{Name: "my", Pattern: regexp.MustCompile(`(?i)\bmy\b`), Replacement: "her"},
	{Name: "mine", Pattern: regexp.MustCompile(`(?i)\bmine\b`), Replacement: "hers"},
	{Name: "myself", Pattern: regexp.MustCompile(`(?i)\bmyself\b`), Replacement: "herself"},
}

// Rules returns a copy of the substitution table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Normalize applies every rule in order and returns the rewritten text.
// It never trims or touches anything other than the listed pronouns.
//
// The output is not guaranteed to be a fixed point: Normalize(Normalize(x))
// may differ from Normalize(x).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	for _, r := range rules {
		text = r.Pattern.ReplaceAllLiteralString(text, r.Replacement)
	}
	return text
}

// Apply runs a single rule. Useful when checking the table rule by rule.
func (r Rule) Apply(text string) string {
	return r.Pattern.ReplaceAllLiteralString(text, r.Replacement)
}
