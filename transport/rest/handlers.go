package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/entity"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/session"
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params)
	ScoreboardHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params)
	StateHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params)
}

type resultRepo interface {
	Tally(ctx context.Context) (*entity.Tally, error)
}

type stateProvider interface {
	State() session.State
}

type handlers struct {
	logger  *slog.Logger
	results resultRepo
	state   stateProvider
}

func NewHandlers(logger *slog.Logger, results resultRepo, state stateProvider) Handlers {
	return &handlers{
		logger:  logger.With("component", "rest"),
		results: results,
		state:   state,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func (that *handlers) ScoreboardHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := that.logger.With("method", "ScoreboardHandler")

	tally, err := that.results.Tally(r.Context())
	if err != nil {
		log.Error("failed to get tally", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, tally)
}

func (that *handlers) StateHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	that.writeJSON(w, that.state.State())
}

func (that *handlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
