package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

const keyPrefix = "betlog"

// CachedBetlog wraps a primary BetlogDB with a Redis read-through cache for
// stats, tournaments and season data. Bet lists are read from the primary.
// A Redis failure falls back to the primary.
type CachedBetlog struct {
	primary BetlogDB
	rdb     *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCachedBetlog creates a cached wrapper around a primary store
func NewCachedBetlog(primary BetlogDB, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedBetlog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedBetlog{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
		logger:  logger,
	}
}

func (c *CachedBetlog) Ping(ctx context.Context) error {
	if err := c.primary.Ping(ctx); err != nil {
		return err
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *CachedBetlog) GetBets(ctx context.Context, filters models.BetFilters) ([]models.Bet, error) {
	return c.primary.GetBets(ctx, filters)
}

func (c *CachedBetlog) GetStats(ctx context.Context, filters models.BetFilters) (*models.Stats, error) {
	key := statsKey(filters)

	var stats models.Stats
	if c.load(ctx, "stats", key, &stats) {
		return &stats, nil
	}

	fresh, err := c.primary.GetStats(ctx, filters)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, fresh)
	return fresh, nil
}

func (c *CachedBetlog) GetTournaments(ctx context.Context, season string) ([]string, error) {
	key := seasonKey(season, "tournaments")

	var tournaments []string
	if c.load(ctx, "tournaments", key, &tournaments) {
		return tournaments, nil
	}

	fresh, err := c.primary.GetTournaments(ctx, season)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, fresh)
	return fresh, nil
}

func (c *CachedBetlog) GetSeasonData(ctx context.Context, season string) (*models.SeasonData, error) {
	key := seasonKey(season, "season-data")

	var data models.SeasonData
	if c.load(ctx, "season_data", key, &data) {
		return &data, nil
	}

	fresh, err := c.primary.GetSeasonData(ctx, season)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, fresh)
	return fresh, nil
}

// Invalidate drops the cached entries of a season and the cross-season
// entries. An empty season drops everything.
func (c *CachedBetlog) Invalidate(ctx context.Context, season string) error {
	patterns := []string{keyPrefix + ":*"}
	if season != "" {
		patterns = []string{seasonKey(season, "*"), seasonKey("", "*")}
	}

	for _, pattern := range patterns {
		iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete cached keys: %w", err)
		}
	}
	return nil
}

func (c *CachedBetlog) load(ctx context.Context, kind, key string, out interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.CacheMisses.WithLabelValues(kind).Inc()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		metrics.CacheMisses.WithLabelValues(kind).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(kind).Inc()
	return true
}

func (c *CachedBetlog) store(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func seasonKey(season, name string) string {
	if season == "" {
		season = "all"
	}
	return fmt.Sprintf("%s:%s:%s", keyPrefix, season, name)
}

// statsKey encodes every applied filter, with tournaments in sorted order
func statsKey(f models.BetFilters) string {
	tournaments := append([]string(nil), f.Tournaments...)
	sort.Strings(tournaments)

	premium := ""
	if f.IsPremium != nil {
		premium = strconv.FormatBool(*f.IsPremium)
	}

	parts := []string{
		"t=" + strings.Join(tournaments, ","),
		"sd=" + f.StartDate,
		"ed=" + f.EndDate,
		"st=" + f.StartTime,
		"et=" + f.EndTime,
		"m=" + f.Month,
		"bt=" + f.BetType,
		"r=" + f.Result,
		"p=" + premium,
	}
	return seasonKey(f.Season, "stats:"+strings.Join(parts, "|"))
}
