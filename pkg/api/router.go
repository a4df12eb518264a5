package api

import (
	"net/http"
	"strings"

	"audio2sign/pkg/config"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handlers, roots []config.AssetRoot) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/transcribe/", h.TranscribeHandler).Methods(http.MethodPost)
	router.HandleFunc("/transcribe", h.TranscribeHandler).Methods(http.MethodPost)
	router.HandleFunc("/translations", h.ListTranslationsHandler).Methods(http.MethodGet)
	router.HandleFunc("/translations/{id}", h.GetTranslationHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws", h.WebSocketHandler)

	for _, root := range roots {
		prefix := "/" + strings.Trim(root.URLPrefix, "/") + "/"
		router.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(root.Dir))))
	}
	return router
}
