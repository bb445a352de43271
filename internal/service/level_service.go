package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hangil-edu/placement-engine/internal/curriculum"
	"github.com/hangil-edu/placement-engine/internal/models"
	"github.com/hangil-edu/placement-engine/internal/repository"
)

const levelCacheKey = "placement:levels"

// LevelService provides the curriculum ladder, cached in Redis since the
// level hierarchy changes rarely but is consulted on every finalization.
type LevelService interface {
	Ladder(ctx context.Context) (*curriculum.Ladder, error)
}

type levelService struct {
	repo     repository.LevelRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewLevelService constructs the level service. The cache client may be nil;
// every call then falls through to the repository.
func NewLevelService(repo repository.LevelRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) LevelService {
	return &levelService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "level_service").Logger(),
	}
}

func (s *levelService) Ladder(ctx context.Context) (*curriculum.Ladder, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, levelCacheKey).Result(); err == nil {
			var levels []models.CurriculumLevel
			if unmarshalErr := json.Unmarshal([]byte(cached), &levels); unmarshalErr == nil {
				if ladder, buildErr := curriculum.NewLadder(levels); buildErr == nil {
					s.logger.Debug().Msg("level cache hit")
					return ladder, nil
				}
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read level cache")
		}
	}

	levels, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	ladder, err := curriculum.NewLadder(levels)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, marshalErr := json.Marshal(levels); marshalErr == nil {
			if err := s.cache.Set(ctx, levelCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store level cache")
			}
		}
	}

	return ladder, nil
}
