package model

// SummaryInput is what the quiz frontend posts once the player reaches the
// final screen
type SummaryInput struct {
	Answers   AnswerSet  `json:"answers"`
	Questions []Question `json:"questions"`
	Nickname  string     `json:"nickname"`
}

// AnswerEntry is one answered question as sent to the model
type AnswerEntry struct {
	Question         string `json:"question"`
	AnswerRaw        string `json:"answer_raw"`
	AnswerNormalized string `json:"answer_normalized"`
}
