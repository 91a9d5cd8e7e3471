package handler

import (
	"errors"
	"net/http"

	"roastnote/internal/logger"
	"roastnote/internal/service"
)

// MaxBodyBytes caps the summarize request body
const MaxBodyBytes = 1 << 20

// SummaryHandler handles summary endpoints
type SummaryHandler struct {
	summarizer service.Summarizer
	log        logger.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(summarizer service.Summarizer, log logger.Logger) *SummaryHandler {
	return &SummaryHandler{
		summarizer: summarizer,
		log:        log,
	}
}

// Summarize handles POST /api/summarize
func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := service.DecodeSummaryInput(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large.")
			return
		}
		writeSummaryError(w, err)
		return
	}

	result, err := h.summarizer.Summarize(ctx, in)
	if err != nil {
		if errors.Is(err, service.ErrCancelled) {
			h.log.Debug(ctx, "summarize cancelled by client")
		} else {
			h.log.Warn(ctx, "summarize failed: kind=%s err=%v", service.KindOf(err), err)
		}
		writeSummaryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Health handles GET /api/health
func (h *SummaryHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
