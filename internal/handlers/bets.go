package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/betlog"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/db"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/filter"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/syncjob"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

// SyncRequester queues bet log imports
type SyncRequester interface {
	Request(ctx context.Context, season, source string) (*models.SyncAck, error)
}

// BetHandler serves the bet log read API and the sync trigger
type BetHandler struct {
	store      db.BetlogDB
	sync       SyncRequester
	adminToken string
	// allowOpenSync permits sync without a configured token (local env)
	allowOpenSync bool
	logger        *zap.Logger
}

// NewBetHandler creates a new bet handler
func NewBetHandler(store db.BetlogDB, sync SyncRequester, adminToken string, allowOpenSync bool, logger *zap.Logger) *BetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BetHandler{
		store:         store,
		sync:          sync,
		adminToken:    adminToken,
		allowOpenSync: allowOpenSync,
		logger:        logger,
	}
}

// GetBets retrieves bets matching the filter query
// Query params: season, tournaments, start_date, end_date, start_time,
// end_time, month, bet_type, is_premium, result
func (h *BetHandler) GetBets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filters := filter.FromValues(r.URL.Query()).BetFilters()

	bets, err := h.store.GetBets(ctx, filters)
	if err != nil {
		h.logger.Error("get bets failed", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to retrieve bets")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, bets)
}

// GetStats retrieves aggregate statistics for the filter query. An empty
// query returns the global statistics.
func (h *BetHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filters := filter.FromValues(r.URL.Query()).BetFilters()

	stats, err := h.store.GetStats(ctx, filters)
	if err != nil {
		h.logger.Error("get stats failed", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to retrieve stats")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, stats)
}

// GetTournaments lists the tournaments of a season
func (h *BetHandler) GetTournaments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}

	tournaments, err := h.store.GetTournaments(ctx, string(season))
	if err != nil {
		h.logger.Error("get tournaments failed", zap.String("season", string(season)), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to retrieve tournaments")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, tournaments)
}

// GetSeasonData returns the filter options of a season
func (h *BetHandler) GetSeasonData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}

	data, err := h.store.GetSeasonData(ctx, string(season))
	if err != nil {
		h.logger.Error("get season data failed", zap.String("season", string(season)), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to retrieve season data")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, data)
}

// TriggerSync queues an import of the bet log
// Query params: season (optional)
func (h *BetHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if status, message := h.authorizeSync(r); status != 0 {
		respondError(w, h.logger, status, message)
		return
	}

	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}

	ack, err := h.sync.Request(ctx, string(season), syncjob.SourceManual)
	if err != nil {
		h.logger.Error("sync request failed", zap.String("season", string(season)), zap.Error(err))
		respondError(w, h.logger, http.StatusServiceUnavailable, "failed to queue sync")
		return
	}

	respondJSON(w, h.logger, http.StatusAccepted, ack)
}

// authorizeSync returns a non-zero status when the request may not sync
func (h *BetHandler) authorizeSync(r *http.Request) (int, string) {
	if h.adminToken == "" {
		if h.allowOpenSync {
			return 0, ""
		}
		return http.StatusForbidden, "sync is disabled: no admin token configured"
	}

	token := r.Header.Get(betlog.AdminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		return http.StatusUnauthorized, "invalid admin token"
	}
	return 0, ""
}

// seasonParam reads the optional season query param. An unknown season is
// rejected with 400.
func (h *BetHandler) seasonParam(w http.ResponseWriter, r *http.Request) (filter.Season, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(filter.KeySeason))
	if raw == "" {
		return "", true
	}
	season := filter.ParseSeason(raw)
	if season == "" {
		respondError(w, h.logger, http.StatusBadRequest, "unknown season "+raw)
		return "", false
	}
	return season, true
}
