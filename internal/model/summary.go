package model

// MaxCallbacks bounds SummaryResult.CallbacksUsed
const MaxCallbacks = 4

// SummarizeRequest is the payload embedded in the model prompt
type SummarizeRequest struct {
	StyleGuide string        `json:"style_guide"`
	Insiders   []Insider     `json:"insiders"`
	Answers    []AnswerEntry `json:"answers"`
	Nickname   string        `json:"nickname"`
}

// SummaryResult is the validated five-field reply shown on the final screen
type SummaryResult struct {
	RoastNote     string   `json:"roast_note"`
	SpiritEmoji   string   `json:"spirit_emoji"`
	SpiritLine    string   `json:"spirit_line"`
	FooterLine    string   `json:"footer_line"`
	CallbacksUsed []string `json:"callbacks_used"`
}
