package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/seafight-backend/internal/entity"
	"github.com/rocketscienceinc/seafight-backend/internal/repository"
	"github.com/rocketscienceinc/seafight-backend/internal/usecase"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)

	StatsHandler(w http.ResponseWriter, _ *http.Request)
	RecentMatchesHandler(w http.ResponseWriter, r *http.Request)
	MatchHandler(w http.ResponseWriter, r *http.Request)
	DeleteMatchHandler(w http.ResponseWriter, r *http.Request)
}

type statsProvider interface {
	Stats() usecase.Stats
}

type matchStore interface {
	GetByCode(ctx context.Context, code string) (*entity.MatchRecord, error)
	Recent(ctx context.Context, limit int) ([]*entity.MatchRecord, error)
	DeleteByCode(ctx context.Context, code string) error
}

type handlers struct {
	logger  *slog.Logger
	stats   statsProvider
	matches matchStore
}

func NewHandlers(logger *slog.Logger, stats statsProvider, matches matchStore) Handlers {
	return &handlers{
		logger:  logger.With("component", "rest"),
		stats:   stats,
		matches: matches,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.stats.Stats())
}

func (that *handlers) RecentMatchesHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}

		limit = min(parsed, maxRecentLimit)
	}

	records, err := that.matches.Recent(r.Context(), limit)
	if err != nil {
		that.logger.Error("failed to read recent matches", "error", err)
		http.Error(w, "Failed to read recent matches", http.StatusInternalServerError)

		return
	}

	that.writeJSON(w, http.StatusOK, records)
}

func (that *handlers) MatchHandler(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	record, err := that.matches.GetByCode(r.Context(), code)
	if errors.Is(err, repository.ErrMatchNotFound) {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}

	if err != nil {
		that.logger.Error("failed to read match", "roomCode", code, "error", err)
		http.Error(w, "Failed to read match", http.StatusInternalServerError)

		return
	}

	that.writeJSON(w, http.StatusOK, record)
}

func (that *handlers) DeleteMatchHandler(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	err := that.matches.DeleteByCode(r.Context(), code)
	if errors.Is(err, repository.ErrMatchNotFound) {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}

	if err != nil {
		that.logger.Error("failed to delete match", "roomCode", code, "error", err)
		http.Error(w, "Failed to delete match", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
