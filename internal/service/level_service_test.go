package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hangil-edu/placement-engine/internal/models"
)

type countingLevelRepo struct {
	levels []models.CurriculumLevel
	calls  int
}

func (r *countingLevelRepo) List(ctx context.Context) ([]models.CurriculumLevel, error) {
	r.calls++
	return r.levels, nil
}

func (r *countingLevelRepo) Create(ctx context.Context, level *models.CurriculumLevel) error {
	r.levels = append(r.levels, *level)
	return nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: server.Addr()})
}

func TestLevelServiceCachesLadder(t *testing.T) {
	repo := &countingLevelRepo{levels: []models.CurriculumLevel{
		{ID: 1, Program: "Foundation", Subprogram: "Track A", LevelNumber: 1, ProgramRank: 1, SubprogramRank: 1},
		{ID: 2, Program: "Foundation", Subprogram: "Track A", LevelNumber: 2, ProgramRank: 1, SubprogramRank: 1},
	}}
	svc := NewLevelService(repo, testRedis(t), time.Minute, testLogger())

	ctx := context.Background()
	ladder, err := svc.Ladder(ctx)
	require.NoError(t, err)
	require.Len(t, ladder.Levels(), 2)
	require.Equal(t, 1, repo.calls)

	// Second call is served from the cache.
	ladder, err = svc.Ladder(ctx)
	require.NoError(t, err)
	require.Len(t, ladder.Levels(), 2)
	require.Equal(t, 1, repo.calls)
}

func TestLevelServiceIgnoresCorruptCache(t *testing.T) {
	repo := &countingLevelRepo{levels: []models.CurriculumLevel{
		{ID: 1, Program: "Foundation", Subprogram: "Track A", LevelNumber: 1, ProgramRank: 1, SubprogramRank: 1},
	}}
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	require.NoError(t, server.Set("placement:levels", "not-json"))

	svc := NewLevelService(repo, client, time.Minute, testLogger())

	ladder, err := svc.Ladder(context.Background())
	require.NoError(t, err)
	require.Len(t, ladder.Levels(), 1)
	require.Equal(t, 1, repo.calls)
}

func TestLevelServiceWithoutCache(t *testing.T) {
	repo := &countingLevelRepo{levels: []models.CurriculumLevel{
		{ID: 1, Program: "Foundation", Subprogram: "Track A", LevelNumber: 1, ProgramRank: 1, SubprogramRank: 1},
	}}
	svc := NewLevelService(repo, nil, time.Minute, testLogger())

	ctx := context.Background()
	_, err := svc.Ladder(ctx)
	require.NoError(t, err)
	_, err = svc.Ladder(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}
