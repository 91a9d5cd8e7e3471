package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"roastnote/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeSummaryError renders a summary failure. Cancelled requests have no
// one left to answer, so nothing is written.
func writeSummaryError(w http.ResponseWriter, err error) {
	se := service.AsSummaryError(err)
	body := map[string]interface{}{"error": se.Message}

	switch {
	case errors.Is(se, service.ErrCancelled):
		return
	case errors.Is(se, service.ErrInvalidPayload):
		writeJSON(w, http.StatusBadRequest, body)
		return
	case errors.Is(se, service.ErrTimeout):
		body["timeoutMs"] = se.TimeoutMS
		writeJSON(w, http.StatusGatewayTimeout, body)
		return
	case errors.Is(se, service.ErrMalformedResponse):
		body["raw"] = se.RawContent
	}

	if se.Details != "" {
		body["details"] = se.Details
	}
	writeJSON(w, http.StatusInternalServerError, body)
}
