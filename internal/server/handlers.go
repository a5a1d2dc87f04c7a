package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bloops-games/mobigame/internal/logging"
)

// StatusPath is the polling endpoint. Other paths below it are not status requests.
const StatusPath = "/api/v1/"

// StatusSource produces the current game's polling code.
type StatusSource interface {
	Status(ctx context.Context) (string, error)
}

func HandleHealth(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("server.HandleHealth")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprint(w, `{"status":"ok"}`); err != nil {
			logger.Errorf("write response: %v", err)
		}
	})
}

// HandleStatus answers polls with the plain text status code of the current game.
func HandleStatus(ctx context.Context, source StatusSource) http.Handler {
	logger := logging.FromContext(ctx).Named("server.HandleStatus")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != StatusPath {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		status, err := source.Status(r.Context())
		if err != nil {
			logger.Errorf("status: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprint(w, status); err != nil {
			logger.Errorf("write response: %v", err)
		}
	})
}
