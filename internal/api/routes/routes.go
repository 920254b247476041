// Package routes mounts every HTTP route on a gorilla/mux router.
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	chathandler "github.com/soomgil/counsel/internal/api/handlers/chat"
	"github.com/soomgil/counsel/internal/api/handlers/conversation"
	realtimehandler "github.com/soomgil/counsel/internal/api/handlers/realtime"
	recordshandler "github.com/soomgil/counsel/internal/api/handlers/records"
	settingshandler "github.com/soomgil/counsel/internal/api/handlers/settings"
	"github.com/soomgil/counsel/internal/api/middleware"
	"github.com/soomgil/counsel/internal/config"
	"github.com/soomgil/counsel/internal/connections"
	"github.com/soomgil/counsel/internal/services"
	"github.com/soomgil/counsel/internal/services/chat"
	"github.com/soomgil/counsel/internal/services/realtime"
	"github.com/soomgil/counsel/pkg/httpext"
)

// RegisterRoutes mounts every route on router itself. A path that exists
// under another method answers 405.
func RegisterRoutes(router *mux.Router, svc *services.Services, cfg *config.Config, manager *connections.Manager) {
	router.Use(middleware.RateLimit(cfg.RateLimits, "global"))

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpext.JsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
	}).Methods(http.MethodGet)

	// without an API key both provider routes answer with a configuration error
	var chatService chat.Service
	var issuer realtime.Issuer
	if c := svc.GetChatService(); c != nil {
		chatService = c
	}
	if o := svc.GetOpenAIService(); o != nil {
		issuer = o
	}

	router.Handle("/api/chat", middleware.RateLimit(cfg.RateLimits, "chat")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chathandler.HandleChat(chatService, w, r)
	}))).Methods(http.MethodPost)

	router.Handle("/api/realtime/session", middleware.RateLimit(cfg.RateLimits, "realtime_session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		realtimehandler.HandleSession(issuer, cfg.Realtime, w, r)
	}))).Methods(http.MethodPost)

	router.HandleFunc("/api/conversation", func(w http.ResponseWriter, r *http.Request) {
		conversation.HandleConversation(svc, manager, w, r)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		settingshandler.HandleGet(svc.GetSettingsService(), w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		settingshandler.HandlePut(svc.GetSettingsService(), w, r)
	}).Methods(http.MethodPut)

	router.HandleFunc("/api/records", func(w http.ResponseWriter, r *http.Request) {
		recordshandler.HandlePage(svc.GetRecordsService(), w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/records/{index:[0-9]+}/toggle", func(w http.ResponseWriter, r *http.Request) {
		recordshandler.HandleToggle(svc.GetRecordsService(), w, r)
	}).Methods(http.MethodPost)
}
