// Package reconcile turns a filter into a consistent dashboard snapshot:
// the filtered bet list, the filtered stats, the filter conflict state and a
// bankroll figure that does not move when the filters change.
package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/filter"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

// Lookup names used in Result.Degraded and metrics
const (
	LookupBets          = "bets"
	LookupFilteredStats = "filtered_stats"
	LookupGlobalStats   = "global_stats"
)

// Source is the read side of the bet log
type Source interface {
	ListBets(ctx context.Context, q filter.Query) ([]models.Bet, error)
	GetStats(ctx context.Context, q filter.Query) (*models.Stats, error)
}

// Result is one published dashboard snapshot
type Result struct {
	// Query is the normalized filter query sent to the source.
	Query    filter.Query
	Stats    models.Stats
	Bets     []models.Bet
	Conflict bool
	// Degraded lists the lookups that failed and were replaced by defaults.
	Degraded []string
}

// Reconciler owns the session bankroll and runs refreshes against a Source.
// It is safe for concurrent use.
type Reconciler struct {
	source   Source
	bankroll *Bankroll
	logger   *zap.Logger
}

// New creates a reconciler with an empty bankroll
func New(source Source, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		source:   source,
		bankroll: &Bankroll{},
		logger:   logger,
	}
}

// Bankroll returns the session bankroll holder
func (r *Reconciler) Bankroll() *Bankroll {
	return r.bankroll
}

// Refresh fetches bets, filtered stats and global stats concurrently and
// merges them once all three have settled. A failed lookup never fails the
// refresh; it is replaced by its default and listed in Result.Degraded.
func (r *Reconciler) Refresh(ctx context.Context, f filter.Filter, known []string) Result {
	start := time.Now()
	defer func() {
		metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}()

	query := filter.Normalize(f, known)

	var (
		wg                      sync.WaitGroup
		bets                    []models.Bet
		filtered, global        *models.Stats
		betsErr, statsErr, gErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		bets, betsErr = r.source.ListBets(ctx, query)
	}()
	go func() {
		defer wg.Done()
		filtered, statsErr = r.source.GetStats(ctx, query)
	}()
	go func() {
		defer wg.Done()
		global, gErr = r.source.GetStats(ctx, filter.Query{})
	}()
	wg.Wait()

	var degraded []string
	if betsErr != nil {
		degraded = append(degraded, r.degrade(LookupBets, betsErr))
		bets = nil
	}
	if statsErr != nil || filtered == nil {
		degraded = append(degraded, r.degrade(LookupFilteredStats, statsErr))
		empty := models.EmptyStats()
		filtered = &empty
	}
	if gErr != nil {
		degraded = append(degraded, r.degrade(LookupGlobalStats, gErr))
		global = nil
	}

	stats := *filtered
	conflict := stats.FilterConflict

	bank := r.resolveBankroll(global)
	stats.CurrentBank = &bank
	winRate := stats.EffectiveWinRate()
	stats.WinRate = &winRate
	if stats.Periods == nil {
		stats.Periods = []models.Period{}
	}

	if conflict || bets == nil {
		bets = []models.Bet{}
	}
	if conflict {
		metrics.FilterConflicts.Inc()
	}

	r.logger.Debug("refresh published",
		zap.Any("query", query),
		zap.Int("bets", len(bets)),
		zap.Bool("conflict", conflict),
		zap.Float64("bankroll", bank),
		zap.Strings("degraded", degraded),
	)

	return Result{
		Query:    query,
		Stats:    stats,
		Bets:     bets,
		Conflict: conflict,
		Degraded: degraded,
	}
}

// resolveBankroll prefers the held bankroll, then the global stats bankroll
// (which becomes the held value), then the default.
func (r *Reconciler) resolveBankroll(global *models.Stats) float64 {
	if v, ok := r.bankroll.Value(); ok {
		return v
	}
	if global != nil && global.CurrentBank != nil {
		return r.bankroll.establish(*global.CurrentBank)
	}
	return models.DefaultBankroll
}

func (r *Reconciler) degrade(lookup string, err error) string {
	metrics.LookupFailures.WithLabelValues(lookup).Inc()
	r.logger.Warn("lookup failed, using defaults",
		zap.String("lookup", lookup),
		zap.Error(err),
	)
	return lookup
}
