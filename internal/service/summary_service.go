package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"roastnote/internal/config"
	"roastnote/internal/logger"
	"roastnote/internal/model"
	"roastnote/internal/normalize"
)

// Completer sends one prompt to a language model and returns the raw reply
// text. Implementations return "" when the reply carries no content.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Summarizer is what transports and sessions depend on
type Summarizer interface {
	Summarize(ctx context.Context, in model.SummaryInput) (*model.SummaryResult, error)
}

// SummaryService assembles the prompt, calls the provider once under a
// deadline and validates the reply
type SummaryService struct {
	ai        *config.AIConfig
	content   *config.Content
	completer Completer
	log       logger.Logger
}

// NewSummaryService creates a new summary service
func NewSummaryService(ai *config.AIConfig, content *config.Content, completer Completer, log logger.Logger) *SummaryService {
	if content == nil {
		content = &config.Content{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SummaryService{
		ai:        ai,
		content:   content,
		completer: completer,
		log:       log,
	}
}

// DecodeSummaryInput reads the inbound JSON payload. Anything that is not
// {answers: object, questions: array, nickname?} is an invalid payload.
func DecodeSummaryInput(r io.Reader) (model.SummaryInput, error) {
	var body struct {
		Answers   model.AnswerSet  `json:"answers"`
		Questions []model.Question `json:"questions"`
		Nickname  interface{}      `json:"nickname"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return model.SummaryInput{}, &SummaryError{Kind: ErrInvalidPayload, Message: "Invalid payload.", Cause: err}
	}
	return model.SummaryInput{
		Answers:   body.Answers,
		Questions: body.Questions,
		Nickname:  model.TextValue(body.Nickname),
	}, nil
}

// BuildSummarizeRequest keeps the non-blank answers in question order and
// pairs each with its normalized form
func BuildSummarizeRequest(in model.SummaryInput, content *config.Content) *model.SummarizeRequest {
	req := &model.SummarizeRequest{
		Insiders: []model.Insider{},
		Answers:  []model.AnswerEntry{},
		Nickname: in.Nickname,
	}
	if content != nil {
		req.StyleGuide = content.StyleGuide
		req.Insiders = model.CompleteInsiders(content.Insiders)
	}

	for _, q := range in.Questions {
		raw := in.Answers.Trimmed(q.ID)
		if raw == "" {
			continue
		}
		req.Answers = append(req.Answers, model.AnswerEntry{
			Question:         q.Prompt,
			AnswerRaw:        raw,
			AnswerNormalized: normalize.Normalize(raw),
		})
	}
	return req
}

// Summarize runs one summary request end to end
func (s *SummaryService) Summarize(ctx context.Context, in model.SummaryInput) (*model.SummaryResult, error) {
	if in.Answers == nil || in.Questions == nil {
		return nil, newError(ErrInvalidPayload, "Invalid payload.")
	}

	req := BuildSummarizeRequest(in, s.content)
	if len(req.Answers) == 0 {
		return nil, newError(ErrInvalidPayload, "No answers to summarize.")
	}

	if !s.ai.IsEnabled() {
		return nil, newError(ErrMissingCredentials, fmt.Sprintf("Missing %s in server environment.", apiKeyEnv(s.ai.Provider)))
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, &SummaryError{Kind: ErrInvalidPayload, Message: "Invalid payload.", Details: err.Error(), Cause: err}
	}

	s.log.Debug(ctx, "summarize: %d answers, %d insiders, provider=%s", len(req.Answers), len(req.Insiders), s.ai.Provider)

	callCtx, cancel := context.WithTimeoutCause(ctx, s.ai.Timeout(), errSummaryTimeout)
	defer cancel()

	content, err := s.completer.Complete(callCtx, prompt)
	if err != nil {
		return nil, s.classify(ctx, callCtx, err)
	}

	return s.parseResult(content)
}

// classify maps a provider failure to a kind. The deadline and the caller's
// cancellation take precedence over whatever error the transport surfaced.
func (s *SummaryService) classify(ctx, callCtx context.Context, err error) error {
	label := providerLabel(s.ai.Provider)

	if errors.Is(context.Cause(callCtx), errSummaryTimeout) {
		return &SummaryError{
			Kind:      ErrTimeout,
			Message:   label + " request timed out",
			TimeoutMS: s.ai.TimeoutMS,
			Cause:     err,
		}
	}
	if ctx.Err() != nil {
		return &SummaryError{Kind: ErrCancelled, Message: "Summary request cancelled.", Cause: ctx.Err()}
	}

	var se *SummaryError
	if errors.As(err, &se) {
		return se
	}
	return &SummaryError{
		Kind:    ErrTransport,
		Message: "Server error while calling " + label + ".",
		Details: err.Error(),
		Cause:   err,
	}
}

func (s *SummaryService) parseResult(content string) (*model.SummaryResult, error) {
	label := providerLabel(s.ai.Provider)

	if strings.TrimSpace(content) == "" {
		return nil, newError(ErrEmptyResponse, "No content in "+label+" response.")
	}
	if !json.Valid([]byte(content)) {
		return nil, &SummaryError{
			Kind:       ErrMalformedResponse,
			Message:    "Failed to parse " + label + " response.",
			RawContent: content,
		}
	}

	var raw struct {
		RoastNote     *string   `json:"roast_note"`
		SpiritEmoji   *string   `json:"spirit_emoji"`
		SpiritLine    *string   `json:"spirit_line"`
		FooterLine    *string   `json:"footer_line"`
		CallbacksUsed *[]string `json:"callbacks_used"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, incomplete(err.Error())
	}

	var missing []string
	for i, p := range []*string{raw.RoastNote, raw.SpiritEmoji, raw.SpiritLine, raw.FooterLine} {
		if p == nil {
			missing = append(missing, summaryFields[i])
		}
	}
	if raw.CallbacksUsed == nil {
		missing = append(missing, "callbacks_used")
	}
	if len(missing) > 0 {
		return nil, incomplete("missing " + strings.Join(missing, ", "))
	}
	if strings.TrimSpace(*raw.RoastNote) == "" {
		return nil, incomplete("roast_note is blank")
	}
	if strings.TrimSpace(*raw.SpiritEmoji) == "" {
		return nil, incomplete("spirit_emoji is blank")
	}
	if n := len(*raw.CallbacksUsed); n > model.MaxCallbacks {
		return nil, incomplete(fmt.Sprintf("callbacks_used has %d entries, max %d", n, model.MaxCallbacks))
	}

	return &model.SummaryResult{
		RoastNote:     *raw.RoastNote,
		SpiritEmoji:   *raw.SpiritEmoji,
		SpiritLine:    *raw.SpiritLine,
		FooterLine:    *raw.FooterLine,
		CallbacksUsed: *raw.CallbacksUsed,
	}, nil
}

func incomplete(details string) *SummaryError {
	return &SummaryError{Kind: ErrIncompleteResult, Message: "Incomplete summary from model.", Details: details}
}

func providerLabel(provider string) string {
	if provider == config.ProviderGemini {
		return "Gemini"
	}
	return "OpenAI"
}

func apiKeyEnv(provider string) string {
	if provider == config.ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}
