package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	playerModel "github.com/bloops-games/mobigame/internal/database/player/model"
	"github.com/bloops-games/mobigame/internal/logging"
	"github.com/bloops-games/mobigame/internal/mobigame"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultWinnersLimit = 10

type joinRequest struct {
	FirstName string             `json:"firstName"`
	Colour    playerModel.Colour `json:"colour"`
}

type playerRequest struct {
	Player   uuid.UUID `json:"player"`
	AnswerID int64     `json:"answerId"`
}

type colourOption struct {
	Colour playerModel.Colour `json:"colour"`
	Style  string             `json:"style"`
}

type choice struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type questionResponse struct {
	Level    int      `json:"level"`
	Wait     bool     `json:"wait"`
	Question string   `json:"question"`
	Answers  []choice `json:"answers"`
}

type progressResponse struct {
	Level      int  `json:"level"`
	Eliminated bool `json:"eliminated"`
	Winner     bool `json:"winner"`
	Second     bool `json:"second"`
	Wait       bool `json:"wait"`
}

// Play serves the JSON endpoints players use to join and play the current game.
type Play struct {
	directory *mobigame.Directory
}

func NewPlay(directory *mobigame.Directory) *Play {
	return &Play{directory: directory}
}

// Register mounts the play endpoints under /api/v1/.
func (p *Play) Register(ctx context.Context, mux *http.ServeMux) {
	mux.Handle("/api/v1/colours", p.method(http.MethodGet, p.handleColours(ctx)))
	mux.Handle("/api/v1/winners", p.method(http.MethodGet, p.handleWinners(ctx)))
	mux.Handle("/api/v1/join", p.method(http.MethodPost, p.handleJoin(ctx)))
	mux.Handle("/api/v1/ready", p.method(http.MethodPost, p.handleReady(ctx)))
	mux.Handle("/api/v1/question", p.method(http.MethodGet, p.handleQuestion(ctx)))
	mux.Handle("/api/v1/answer", p.method(http.MethodPost, p.handleAnswer(ctx)))
	mux.Handle("/api/v1/signout", p.method(http.MethodPost, p.handleSignOut(ctx)))
}

func (p *Play) method(method string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Play) handleColours(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("server.handleColours")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		free, err := p.directory.UnusedColours(r.Context())
		if err != nil {
			writeError(logger, w, err)
			return
		}
		options := make([]colourOption, 0, len(free))
		for _, c := range free {
			options = append(options, colourOption{Colour: c, Style: c.Style()})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"colours": options})
	})
}

func (p *Play) handleWinners(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("server.handleWinners")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := defaultWinnersLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		winners, err := p.directory.PreviousWinners(r.Context(), limit)
		if err != nil {
			writeError(logger, w, err)
			return
		}
		if winners == nil {
			winners = []uuid.UUID{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"winners": winners})
	})
}

func (p *Play) handleJoin(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("server.handleJoin")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req joinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.FirstName) == "" {
			http.Error(w, "missing first name", http.StatusBadRequest)
			return
		}

		player, err := p.directory.Join(r.Context(), req.FirstName, req.Colour)
		if err != nil {
			logger.Debugf("join %q: %v", req.FirstName, err)
			writeError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusCreated, player)
	})
}

func (p *Play) handleReady(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("server.handleReady")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodePlayer(w, r)
		if !ok {
			return
		}

		var resp progressResponse
		err := p.directory.Play(r.Context(), func(s *mobigame.Session) error {
			if !s.PlayerExists(req.Player) {
				return mobigame.ErrUnknownPlayer
			}
			s.SeenReady(req.Player)
			resp = progress(s, req.Player)
			return nil
		})
		if err != nil {
			logger.Debugf("ready %s: %v", req.Player, err)
			writeError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func (p *Play) handleQuestion(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("server.handleQuestion")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.URL.Query().Get("player"))
		if err != nil {
			http.Error(w, "invalid player", http.StatusBadRequest)
			return
		}

		var resp questionResponse
		err = p.directory.Play(r.Context(), func(s *mobigame.Session) error {
			q, err := s.CurrentQuestion(r.Context(), id)
			if err != nil {
				return err
			}
			answers, err := s.Answers(r.Context(), q)
			if err != nil {
				return err
			}

			resp = questionResponse{
				Level:    s.PlayerLevel(id),
				Wait:     s.PlayerAhead(id),
				Question: q.Text,
				Answers:  make([]choice, 0, len(answers)),
			}
			for _, a := range answers {
				resp.Answers = append(resp.Answers, choice{ID: a.ID, Text: a.Text})
			}
			return nil
		})
		if err != nil {
			logger.Debugf("question for %s: %v", id, err)
			writeError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func (p *Play) handleAnswer(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("server.handleAnswer")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodePlayer(w, r)
		if !ok {
			return
		}

		var resp progressResponse
		err := p.directory.Play(r.Context(), func(s *mobigame.Session) error {
			if !s.PlayerExists(req.Player) {
				return mobigame.ErrUnknownPlayer
			}
			if s.Eliminated(req.Player) {
				return mobigame.ErrPlayerEliminated
			}
			if err := s.Answer(r.Context(), req.Player, req.AnswerID); err != nil {
				return err
			}
			resp = progress(s, req.Player)
			return nil
		})
		if err != nil {
			logger.Debugf("answer of %s: %v", req.Player, err)
			writeError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func (p *Play) handleSignOut(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("server.handleSignOut")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodePlayer(w, r)
		if !ok {
			return
		}

		if err := p.directory.SignOut(r.Context(), req.Player); err != nil {
			logger.Debugf("sign out %s: %v", req.Player, err)
			writeError(logger, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func progress(s *mobigame.Session, id uuid.UUID) progressResponse {
	return progressResponse{
		Level:      s.PlayerLevel(id),
		Eliminated: s.Eliminated(id),
		Winner:     s.Winner(id),
		Second:     s.Second(id),
		Wait:       s.PlayerAhead(id),
	}
}

func decodePlayer(w http.ResponseWriter, r *http.Request) (playerRequest, bool) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	if req.Player == uuid.Nil {
		http.Error(w, "missing player", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// writeError maps gameplay errors to client errors. Anything else, a question or answer missing
// from the bank included, is an internal error.
func writeError(logger *zap.SugaredLogger, w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, mobigame.ErrUnknownPlayer):
		code = http.StatusNotFound
	case errors.Is(err, mobigame.ErrGameFull),
		errors.Is(err, mobigame.ErrColourTaken),
		errors.Is(err, mobigame.ErrNotReady),
		errors.Is(err, mobigame.ErrPlayerEliminated):
		code = http.StatusConflict
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		logger.Errorf("internal error: %v", err)
		msg = http.StatusText(code)
	}
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
