package handlers

import (
	"net/http"

	"github.com/nkiryanov/foodrhapsody/internal/handlers/render"
)

func handleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
}

func handleVersion(version string) http.Handler {
	type response struct {
		Version string `json:"version"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		render.JSON(w, response{Version: version})
	})
}
