package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"roastnote/internal/logger"
	"roastnote/internal/service"
	"roastnote/internal/transport/rest/handler"
	"roastnote/internal/transport/rest/middleware"
	"roastnote/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Summarizer     service.Summarizer
	AllowedOrigins []string
	WSHub          *ws.Hub
	Logger         logger.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}
	hub := c.WSHub
	if hub == nil {
		hub = ws.NewHub()
	}

	cors := middleware.NewCORS(c.AllowedOrigins)

	// Initialize handlers
	summaryHandler := handler.NewSummaryHandler(c.Summarizer, log)
	wsHandler := ws.NewHandler(hub, c.Summarizer, cors.OriginAllowed, log)

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(log))
	r.Use(cors.Handler)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", summaryHandler.Health).Methods("GET", "OPTIONS")
	api.HandleFunc("/summarize", summaryHandler.Summarize).Methods("POST", "OPTIONS")
	api.HandleFunc("/summarize/ws", wsHandler.SummarizeWS).Methods("GET")

	return r
}
