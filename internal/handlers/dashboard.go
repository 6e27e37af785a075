package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/betlog"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/display"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/filter"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/nominals"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/paginate"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/reconcile"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

// ConflictMessage is shown instead of the bet list when the filters cannot
// match anything
const ConflictMessage = "selected filters do not overlap"

// LookupTournaments names the tournament lookup in DashboardView.Degraded
const LookupTournaments = "tournaments"

// Upstream is the bet log source as seen by the dashboard
type Upstream interface {
	reconcile.Source
	ListTournaments(ctx context.Context, season filter.Season) ([]string, error)
	SeasonData(ctx context.Context, season filter.Season) (*models.SeasonData, error)
	TriggerSync(ctx context.Context, season filter.Season, token string) (*models.SyncAck, error)
}

// DashboardBet is a bet row with its date rendered in the display timezone
type DashboardBet struct {
	models.Bet
	DisplayDate string `json:"display_date"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	Total      int   `json:"total"`
	PageSizes  []int `json:"page_sizes"`
}

// DashboardView is one rendered dashboard snapshot
type DashboardView struct {
	Stats      models.Stats   `json:"stats"`
	Conflict   bool           `json:"conflict"`
	Message    string         `json:"message,omitempty"`
	Bets       []DashboardBet `json:"bets"`
	Pagination Pagination     `json:"pagination"`
	Periods    []nominals.Row `json:"periods,omitempty"`
	Filters    filter.Query   `json:"filters"`
	Degraded   []string       `json:"degraded,omitempty"`
}

// DashboardHandler serves the dashboard API
type DashboardHandler struct {
	upstream   Upstream
	reconciler *reconcile.Reconciler
	formatter  *display.Formatter
	pageSize   int
	logger     *zap.Logger
}

// NewDashboardHandler creates a dashboard handler. pageSize is the default
// page size when a request does not name one.
func NewDashboardHandler(upstream Upstream, reconciler *reconcile.Reconciler, formatter *display.Formatter, pageSize int, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize < 1 {
		pageSize = paginate.DefaultPageSize
	}
	return &DashboardHandler{
		upstream:   upstream,
		reconciler: reconciler,
		formatter:  formatter,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// GetDashboard refreshes the dashboard for the submitted filters
// Query params: the filter keys plus page and page_size
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	respondJSON(w, h.logger, http.StatusOK, h.refresh(ctx, r))
}

// GetSeasonData returns the filter options of a season. A failed lookup
// yields empty options.
func (h *DashboardHandler) GetSeasonData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	season := requestSeason(r)

	data, err := h.upstream.SeasonData(ctx, season)
	if err != nil || data == nil {
		h.logger.Warn("season data lookup failed", zap.String("season", string(season)), zap.Error(err))
		data = &models.SeasonData{Season: string(season)}
	}
	if data.Season == "" {
		data.Season = string(season)
	}
	if data.Tournaments == nil {
		data.Tournaments = []string{}
	}
	if data.Months == nil {
		data.Months = []models.MonthOption{}
	}

	respondJSON(w, h.logger, http.StatusOK, data)
}

// GetTournaments lists the tournaments of a season. A failed lookup yields
// an empty list.
func (h *DashboardHandler) GetTournaments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	respondJSON(w, h.logger, http.StatusOK, h.tournaments(ctx, requestSeason(r)))
}

// TriggerSync asks the source to import the bet log and returns the
// acknowledgement together with a refreshed dashboard. A failed sync is
// reported and not retried.
func (h *DashboardHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	season := requestSeason(r)

	ack, err := h.upstream.TriggerSync(ctx, season, r.Header.Get(betlog.AdminTokenHeader))
	if err != nil {
		h.logger.Error("sync failed", zap.String("season", string(season)), zap.Error(err))

		status, message := http.StatusBadGateway, "sync failed"
		var statusErr *betlog.StatusError
		if errors.As(err, &statusErr) {
			if statusErr.Status == http.StatusUnauthorized || statusErr.Status == http.StatusForbidden {
				status = statusErr.Status
			}
			if statusErr.Message != "" {
				message += ": " + statusErr.Message
			}
		}
		respondError(w, h.logger, status, message)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"sync":      ack,
		"dashboard": h.refresh(ctx, r),
	})
}

func (h *DashboardHandler) refresh(ctx context.Context, r *http.Request) DashboardView {
	f := filter.FromValues(r.URL.Query())
	if f.Season == "" {
		f.Season = filter.DefaultSeason
	}

	var degraded []string
	known, err := h.upstream.ListTournaments(ctx, f.Season)
	if err != nil {
		h.logger.Warn("tournament lookup failed", zap.String("season", string(f.Season)), zap.Error(err))
		degraded = append(degraded, LookupTournaments)
	}

	result := h.reconciler.Refresh(ctx, f, known)

	pageSize := parseIntParam(r, "page_size", h.pageSize)
	if pageSize > paginate.MaxPageSize {
		pageSize = paginate.MaxPageSize
	}
	pager := paginate.New[models.Bet](pageSize)
	pager.SetRows(result.Bets)
	pager.SetPage(parseIntParam(r, "page", 1))

	rows := pager.Rows()
	bets := make([]DashboardBet, 0, len(rows))
	for _, bet := range rows {
		bets = append(bets, DashboardBet{
			Bet:         bet,
			DisplayDate: h.formatter.Instant(bet.Date),
		})
	}

	view := DashboardView{
		Stats:    result.Stats,
		Conflict: result.Conflict,
		Bets:     bets,
		Pagination: Pagination{
			Page:       pager.Page(),
			PageSize:   pager.PageSize(),
			TotalPages: pager.TotalPages(),
			Total:      pager.Total(),
			PageSizes:  paginate.PageSizes,
		},
		Periods:  nominals.Project(result.Stats.Periods, result.Conflict),
		Filters:  result.Query,
		Degraded: append(degraded, result.Degraded...),
	}
	if view.Conflict {
		view.Message = ConflictMessage
		view.Stats.Periods = []models.Period{}
	}
	return view
}

func (h *DashboardHandler) tournaments(ctx context.Context, season filter.Season) []string {
	tournaments, err := h.upstream.ListTournaments(ctx, season)
	if err != nil {
		h.logger.Warn("tournament lookup failed", zap.String("season", string(season)), zap.Error(err))
		return []string{}
	}
	if tournaments == nil {
		return []string{}
	}
	return tournaments
}

// requestSeason returns the requested season, or the default one when the
// param is missing or unknown
func requestSeason(r *http.Request) filter.Season {
	if season := filter.ParseSeason(r.URL.Query().Get(filter.KeySeason)); season != "" {
		return season
	}
	return filter.DefaultSeason
}
