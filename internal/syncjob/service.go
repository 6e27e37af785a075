// Package syncjob queues bet log imports: it publishes sync requests to
// Kafka, drops cached reads of the affected season and runs the optional
// schedule.
package syncjob

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/pkg/models"
)

// Sync request sources
const (
	SourceManual   = "manual"
	SourceSchedule = "schedule"
)

const StatusQueued = "queued"

// Publisher delivers sync requests to the importer
type Publisher interface {
	Publish(ctx context.Context, e models.SyncRequested) error
}

// Invalidator drops cached reads of a season
type Invalidator interface {
	Invalidate(ctx context.Context, season string) error
}

// Service turns sync triggers into queued requests
type Service struct {
	publisher Publisher
	cache     Invalidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a sync service. cache may be nil.
func NewService(publisher Publisher, cache Invalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		publisher: publisher,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// Request queues an import of season ("" for every season)
func (s *Service) Request(ctx context.Context, season, source string) (*models.SyncAck, error) {
	requestedAt := s.now().UTC()
	requestID := uuid.NewString()

	err := s.publisher.Publish(ctx, models.SyncRequested{
		RequestID: requestID,
		Season:    season,
		Source:    source,
		TsUnixMs:  requestedAt.UnixMilli(),
	})
	if err != nil {
		metrics.SyncRequests.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("publish sync request: %w", err)
	}
	metrics.SyncRequests.WithLabelValues(source, "queued").Inc()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, season); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("season", season), zap.Error(err))
		}
	}

	s.logger.Info("sync requested",
		zap.String("request_id", requestID),
		zap.String("season", season),
		zap.String("source", source),
	)

	return &models.SyncAck{
		Status:      StatusQueued,
		RequestID:   requestID,
		Season:      season,
		RequestedAt: requestedAt,
	}, nil
}
